package flow

import (
	"github.com/google/uuid"

	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/exchange/core"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/payment"
)

// StateName identifies a conversation state.
type StateName string

const (
	StateSelectingCurrency StateName = "selecting_currency"
	StateEnteringAmount    StateName = "entering_amount"
	StateConfirming        StateName = "confirming"
	StateAwaitingPayment   StateName = "awaiting_payment"
	StateSettled           StateName = "settled"
	StateCancelled         StateName = "cancelled"
)

// conversationState is a tagged variant: one payload shape per state.
// An event handler that reaches a state's payload has, by construction,
// every field that state requires; "required field missing" is not a
// representable situation.
type conversationState interface {
	stateName() StateName
}

type selectingCurrency struct{}

type enteringAmount struct {
	Asset currency.AssetMeta
}

type confirming struct {
	Asset currency.AssetMeta
	Quote core.Quote

	// Set once the durable row / invoice exist, so a retried confirm
	// after a partial failure does not duplicate them.
	RequestID *uuid.UUID
	Invoice   *payment.Invoice
}

type awaitingPayment struct {
	RequestID uuid.UUID
}

type settled struct {
	RequestID uuid.UUID

	// Check is the payout already issued for this request. A repeated
	// check_payment may retry the ledger write, never the payout.
	Check *payment.Check
}

type cancelled struct{}

func (selectingCurrency) stateName() StateName { return StateSelectingCurrency }
func (enteringAmount) stateName() StateName    { return StateEnteringAmount }
func (confirming) stateName() StateName        { return StateConfirming }
func (awaitingPayment) stateName() StateName   { return StateAwaitingPayment }
func (settled) stateName() StateName           { return StateSettled }
func (cancelled) stateName() StateName         { return StateCancelled }
