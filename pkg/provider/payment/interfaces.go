// Package payment defines the boundary to the custodial payment
// gateway: payable invoices for the user's gross amount and redeemable
// checks for the net payout.
package payment

import "context"

// Gateway is the payment provider contract. All calls are bounded by
// the provider's HTTP timeout and fail with a plain error on any
// transport or API fault; callers decide how a failure maps onto the
// conversation.
type Gateway interface {
	// CreateInvoice creates a payable invoice for the gross amount.
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*Invoice, error)

	// GetInvoiceStatus reports the current status of an invoice.
	GetInvoiceStatus(ctx context.Context, invoiceID int64) (InvoiceStatus, error)

	// CreateCheck issues a redeemable check for the net payout, pinned
	// to the recipient so nobody else can activate it.
	CreateCheck(ctx context.Context, params CreateCheckParams) (*Check, error)
}
