package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the payment state of an invoice as reported by the
// gateway.
type InvoiceStatus string

const (
	// InvoiceActive means the invoice is created and awaiting payment.
	InvoiceActive InvoiceStatus = "active"
	// InvoicePaid means the invoice has been paid in full.
	InvoicePaid InvoiceStatus = "paid"
	// InvoiceExpired means the invoice lapsed before payment.
	InvoiceExpired InvoiceStatus = "expired"
)

// Invoice is a payable request created with the gateway.
type Invoice struct {
	InvoiceID int64
	Status    InvoiceStatus
	PayURL    string
}

// Check is a redeemable payout artifact created with the gateway.
type Check struct {
	CheckID   int64
	RedeemURL string
}

// CreateInvoiceParams holds the parameters for CreateInvoice.
type CreateInvoiceParams struct {
	Asset         string
	Amount        decimal.Decimal
	Description   string
	HiddenMessage string
	ExpiresIn     time.Duration
}

// CreateCheckParams holds the parameters for CreateCheck.
type CreateCheckParams struct {
	Asset       string
	Amount      decimal.Decimal
	PinToUserID int64
}
