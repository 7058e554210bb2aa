package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of an exchange request.
type Status string

const (
	// StatusPending means the request awaits invoice payment.
	StatusPending Status = "pending"
	// StatusCompleted means the payout check has been issued.
	StatusCompleted Status = "completed"
	// StatusCancelled means the request was abandoned before settlement.
	StatusCancelled Status = "cancelled"
)

// ExchangeRequest is the durable unit of work: one user-confirmed
// conversion of a gross source-currency amount into a net USDT payout.
// Rows are append-only; settlement mutates status and references but
// requests are never deleted.
type ExchangeRequest struct {
	ID        uuid.UUID
	Reference string
	UserID    int64

	Asset       string
	GrossAmount decimal.Decimal
	Rate        decimal.Decimal
	USDTValue   decimal.Decimal
	Commission  decimal.Decimal
	NetPayout   decimal.Decimal

	Status     Status
	InvoiceID  int64
	InvoiceURL string
	CheckID    int64
	CheckURL   string

	CreatedAt time.Time
	SettledAt *time.Time
}

// Settled reports whether a payout check has already been issued.
func (r *ExchangeRequest) Settled() bool {
	return r.Status == StatusCompleted || r.CheckID != 0
}

// NewReference returns a short human-readable exchange reference: the
// first eight hex characters of a fresh UUID.
func NewReference() string {
	return uuid.NewString()[:8]
}
