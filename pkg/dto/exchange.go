package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeCreate carries the fields for inserting a new exchange
// request into the ledger.
type ExchangeCreate struct {
	ID          uuid.UUID
	Reference   string
	UserID      int64
	Asset       string
	GrossAmount decimal.Decimal
	Rate        decimal.Decimal
	USDTValue   decimal.Decimal
	Commission  decimal.Decimal
	NetPayout   decimal.Decimal
	Status      string
}

// ExchangeUpdate carries optional fields for updating an exchange
// request; nil fields are left untouched.
type ExchangeUpdate struct {
	Status     *string
	InvoiceID  *int64
	InvoiceURL *string
	CheckID    *int64
	CheckURL   *string
	SettledAt  *time.Time
}

// ExchangeStats are the ledger's aggregate counts, exposed read-only
// on the status surface.
type ExchangeStats struct {
	Users     int64 `json:"users"`
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}
