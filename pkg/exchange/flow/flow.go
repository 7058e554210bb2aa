// Package flow drives the exchange conversation: currency selection,
// amount entry, confirmation, payment and settlement. Each transport
// event maps to one method. Every method returns a structured Reply and
// never a transport-visible error: faults are folded into replies that
// keep or reset the conversation, so no user input can take the process
// down.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/dto"
	"github.com/Pelmeshek11/FlipEx/pkg/exchange/core"
	"github.com/Pelmeshek11/FlipEx/pkg/money"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/payment"
	exchangerepo "github.com/Pelmeshek11/FlipEx/pkg/repository/exchange"
	userrepo "github.com/Pelmeshek11/FlipEx/pkg/repository/user"
)

const (
	msgTryAgainLater = "Something went wrong on our side. Please try again in a moment."
	msgRestart       = "This conversation got out of step. Start a new exchange to continue."
)

// Deps are the collaborators the flow drives.
type Deps struct {
	Validator     *core.Validator
	Resolver      core.RateResolver
	Registry      *currency.Registry
	Ledger        exchangerepo.Repository
	Users         userrepo.Repository
	Gateway       payment.Gateway
	InvoiceExpiry time.Duration
	Logger        *slog.Logger
}

// Flow is the exchange request state machine over all active
// conversations.
type Flow struct {
	deps     Deps
	sessions *sessionStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Flow with an empty session store.
func New(deps Deps) *Flow {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		deps:     deps,
		sessions: newSessionStore(),
		logger:   logger,
		now:      time.Now,
	}
}

// StateOf reports the conversation state for a user. New users start at
// currency selection.
func (f *Flow) StateOf(userID int64) StateName {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.stateName()
}

// Start registers the user and opens a fresh conversation at currency
// selection, discarding any in-flight one.
func (f *Flow) Start(ctx context.Context, user dto.UserCreate) *Reply {
	if _, err := f.deps.Users.GetOrCreate(ctx, user); err != nil {
		// Registration retries at confirmation; selection can proceed.
		f.logger.Error("user registration failed", "user_id", user.TelegramID, "error", err)
	}

	sess := f.sessions.get(user.TelegramID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.state = selectingCurrency{}

	return &Reply{
		Text:    "Select the currency you want to exchange into USDT:",
		Choices: f.assetChoices(),
	}
}

// SelectCurrency records the chosen asset and prompts for an amount,
// showing the policy maximum. A missing rate only degrades the display;
// it never blocks the transition.
func (f *Flow) SelectCurrency(ctx context.Context, userID int64, code string) *Reply {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state.(type) {
	case selectingCurrency, enteringAmount:
	default:
		return f.reset(sess)
	}

	meta, ok := f.deps.Registry.Get(code)
	if !ok {
		return &Reply{
			Text:    fmt.Sprintf("%s is not supported. Pick one of the listed currencies.", code),
			Choices: f.assetChoices(),
		}
	}

	maxLine := fmt.Sprintf("Maximum: %s %s", meta.Format(meta.MaxAmount), meta.Code)
	if info, err := f.deps.Resolver.Rate(ctx, meta.Code); err == nil {
		maxLine += fmt.Sprintf(" (~%s USDT)", money.FormatUSDT(meta.MaxAmount.Mul(info.Rate)))
	} else {
		f.logger.Warn("no rate for maximum display", "asset", meta.Code, "error", err)
	}

	sess.state = enteringAmount{Asset: meta}

	return &Reply{
		Text: fmt.Sprintf("You chose %s (%s).\nEnter the amount of %s to exchange.\n%s",
			meta.Name, meta.Code, meta.Code, maxLine),
		Choices: []Choice{{Label: "Cancel", Data: ChoiceCancel}},
	}
}

// SubmitAmount parses and validates the entered amount. On rejection
// the conversation stays at amount entry and the reason is surfaced
// verbatim; on success it advances to confirmation holding the full
// computed quote.
func (f *Flow) SubmitAmount(ctx context.Context, userID int64, text string) *Reply {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	st, ok := sess.state.(enteringAmount)
	if !ok {
		return f.reset(sess)
	}

	amount, err := money.ParseAmount(text)
	if err != nil {
		return &Reply{Text: "Please enter a number, for example: 0.2"}
	}

	quote, err := f.deps.Validator.Validate(ctx, st.Asset.Code, amount)
	if err != nil {
		return &Reply{Text: err.Error()}
	}

	sess.state = confirming{Asset: st.Asset, Quote: *quote}

	var b strings.Builder
	fmt.Fprintf(&b, "Confirm the exchange:\n")
	fmt.Fprintf(&b, "You send: %s %s (~%s USDT)\n",
		st.Asset.Format(quote.GrossAmount), quote.Asset, money.FormatUSDT(quote.USDTValue))
	fmt.Fprintf(&b, "You receive: %s USDT\n", money.FormatUSDT(quote.NetPayout))
	fmt.Fprintf(&b, "Commission: %s USDT", money.FormatUSDT(quote.Commission))

	return &Reply{
		Text: b.String(),
		Choices: []Choice{
			{Label: "Confirm", Data: ChoiceConfirm},
			{Label: "Cancel", Data: ChoiceCancel},
		},
	}
}

// Confirm turns the quoted exchange into a durable pending request and
// asks the gateway for an invoice. Gateway failure keeps the
// conversation at confirmation so the user can retry without losing the
// quote; a retried confirm reuses the row and invoice it already made.
func (f *Flow) Confirm(ctx context.Context, userID int64) *Reply {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch st := sess.state.(type) {
	case awaitingPayment:
		// Second tap after success: repeat the invoice, create nothing.
		return f.invoiceReply(ctx, st.RequestID)
	case confirming:
		return f.confirmLocked(ctx, sess, st, userID)
	default:
		return f.reset(sess)
	}
}

func (f *Flow) confirmLocked(ctx context.Context, sess *session, st confirming, userID int64) *Reply {
	if !quoteComplete(st.Quote) {
		f.logger.Error("incomplete quote at confirmation", "user_id", userID, "asset", st.Quote.Asset)
		return f.reset(sess)
	}

	user, err := f.deps.Users.GetOrCreate(ctx, dto.UserCreate{TelegramID: userID})
	if err != nil {
		f.logger.Error("user lookup failed at confirmation", "user_id", userID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: confirmChoices()}
	}

	if st.RequestID == nil {
		id := uuid.New()
		create := dto.ExchangeCreate{
			ID:          id,
			Reference:   domain.NewReference(),
			UserID:      user.ID,
			Asset:       st.Quote.Asset,
			GrossAmount: st.Quote.GrossAmount,
			Rate:        st.Quote.Rate,
			USDTValue:   st.Quote.USDTValue,
			Commission:  st.Quote.Commission,
			NetPayout:   st.Quote.NetPayout,
			Status:      string(domain.StatusPending),
		}
		if err := f.deps.Ledger.Create(ctx, create); err != nil {
			f.logger.Error("ledger insert failed", "user_id", userID, "error", err)
			return &Reply{Text: msgTryAgainLater, Choices: confirmChoices()}
		}
		st.RequestID = &id
		sess.state = st
	}

	if st.Invoice == nil {
		invoice, err := f.deps.Gateway.CreateInvoice(ctx, payment.CreateInvoiceParams{
			Asset:         st.Quote.Asset,
			Amount:        st.Quote.GrossAmount,
			Description:   fmt.Sprintf("Exchange %s to USDT", st.Quote.Asset),
			HiddenMessage: fmt.Sprintf("User %d | Exchange: %s", user.ID, st.RequestID),
			ExpiresIn:     f.deps.InvoiceExpiry,
		})
		if err != nil {
			f.logger.Error("invoice creation failed", "request_id", st.RequestID, "error", err)
			return &Reply{Text: msgTryAgainLater, Choices: confirmChoices()}
		}
		st.Invoice = invoice
		sess.state = st
	}

	update := dto.ExchangeUpdate{
		InvoiceID:  &st.Invoice.InvoiceID,
		InvoiceURL: &st.Invoice.PayURL,
	}
	if err := f.deps.Ledger.Update(ctx, *st.RequestID, update); err != nil {
		f.logger.Error("ledger invoice update failed", "request_id", st.RequestID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: confirmChoices()}
	}

	f.logger.Info("exchange confirmed",
		"request_id", st.RequestID,
		"asset", st.Quote.Asset,
		"gross", st.Quote.GrossAmount,
		"net_usdt", st.Quote.NetPayout,
		"invoice_id", st.Invoice.InvoiceID)

	sess.state = awaitingPayment{RequestID: *st.RequestID}

	return &Reply{
		Text: fmt.Sprintf(
			"Invoice created.\nPay %s %s within %s, then tap \"I paid\".",
			st.Asset.Format(st.Quote.GrossAmount), st.Quote.Asset, f.deps.InvoiceExpiry),
		Links: []Link{{Label: "Pay invoice", URL: st.Invoice.PayURL}},
		Choices: []Choice{
			{Label: "I paid", Data: ChoiceCheckPayment},
			{Label: "Cancel", Data: ChoiceCancel},
		},
	}
}

// CheckPayment polls the invoice and, once it is paid, settles the
// request by issuing the payout check. The persisted status is checked
// before the payout call, and an already-settled conversation never
// re-enters the settlement path, so a repeated tap can never issue a
// second check.
func (f *Flow) CheckPayment(ctx context.Context, userID int64) *Reply {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	var requestID uuid.UUID
	switch st := sess.state.(type) {
	case awaitingPayment:
		requestID = st.RequestID
	case settled:
		return f.settledLocked(ctx, st)
	default:
		return f.reset(sess)
	}

	req, err := f.deps.Ledger.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			f.logger.Error("request vanished from ledger", "request_id", requestID)
			return f.reset(sess)
		}
		f.logger.Error("ledger read failed", "request_id", requestID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: checkChoices()}
	}

	if req.Settled() {
		sess.state = settled{
			RequestID: requestID,
			Check:     &payment.Check{CheckID: req.CheckID, RedeemURL: req.CheckURL},
		}
		return alreadySettledReply(req)
	}

	status, err := f.deps.Gateway.GetInvoiceStatus(ctx, req.InvoiceID)
	if err != nil {
		f.logger.Error("invoice status fetch failed", "invoice_id", req.InvoiceID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: checkChoices()}
	}

	if status != payment.InvoicePaid {
		reply := &Reply{
			Text:    "The invoice is not paid yet. Pay it and try again.",
			Choices: checkChoices(),
		}
		if req.InvoiceURL != "" {
			reply.Links = []Link{{Label: "Pay invoice", URL: req.InvoiceURL}}
		}
		return reply
	}

	check, err := f.deps.Gateway.CreateCheck(ctx, payment.CreateCheckParams{
		Asset:       currency.Quote,
		Amount:      req.NetPayout,
		PinToUserID: userID,
	})
	if err != nil {
		f.logger.Error("check creation failed", "request_id", requestID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: checkChoices()}
	}

	settledAt := f.now()
	completed := string(domain.StatusCompleted)
	update := dto.ExchangeUpdate{
		Status:    &completed,
		CheckID:   &check.CheckID,
		CheckURL:  &check.RedeemURL,
		SettledAt: &settledAt,
	}
	if err := f.deps.Ledger.Update(ctx, requestID, update); err != nil {
		// The check exists; losing this write must not issue another.
		// The settled payload carries the check so a retap retries the
		// write alone.
		f.logger.Error("ledger settle update failed", "request_id", requestID, "error", err)
	}

	f.logger.Info("exchange settled",
		"request_id", requestID,
		"reference", req.Reference,
		"net_usdt", req.NetPayout,
		"check_id", check.CheckID)

	sess.state = settled{RequestID: requestID, Check: check}

	meta, _ := f.deps.Registry.Get(req.Asset)
	return &Reply{
		Text: fmt.Sprintf(
			"Exchange %s completed.\nYou sent %s %s and receive %s USDT.",
			req.Reference, meta.Format(req.GrossAmount), req.Asset, money.FormatUSDT(req.NetPayout)),
		Links:   []Link{{Label: "Redeem check", URL: check.RedeemURL}},
		Choices: []Choice{{Label: "New exchange", Data: ChoiceNewExchange}},
	}
}

// settledLocked serves a repeated check_payment after settlement. The
// payout check already exists, so the only thing worth retrying is a
// ledger write that failed after the check was issued.
func (f *Flow) settledLocked(ctx context.Context, st settled) *Reply {
	req, err := f.deps.Ledger.Get(ctx, st.RequestID)
	if err != nil {
		f.logger.Error("ledger read failed", "request_id", st.RequestID, "error", err)
	} else if !req.Settled() && st.Check != nil {
		settledAt := f.now()
		completed := string(domain.StatusCompleted)
		update := dto.ExchangeUpdate{
			Status:    &completed,
			CheckID:   &st.Check.CheckID,
			CheckURL:  &st.Check.RedeemURL,
			SettledAt: &settledAt,
		}
		if err := f.deps.Ledger.Update(ctx, st.RequestID, update); err != nil {
			f.logger.Error("ledger settle update failed", "request_id", st.RequestID, "error", err)
		}
	}

	reply := &Reply{
		Text:    "This exchange is already settled.",
		Choices: []Choice{{Label: "New exchange", Data: ChoiceNewExchange}},
	}
	if req != nil {
		reply.Text = fmt.Sprintf("Exchange %s is already settled.", req.Reference)
	}
	if st.Check != nil && st.Check.RedeemURL != "" {
		reply.Links = []Link{{Label: "Redeem check", URL: st.Check.RedeemURL}}
	}
	return reply
}

// Cancel force-moves the conversation to the absorbing cancelled state
// from anywhere, discarding in-memory data. Durable rows are never
// touched.
func (f *Flow) Cancel(_ context.Context, userID int64) *Reply {
	sess := f.sessions.get(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.state = cancelled{}
	return &Reply{
		Text:    "Exchange cancelled. Start a new one whenever you like.",
		Choices: []Choice{{Label: "New exchange", Data: ChoiceNewExchange}},
	}
}

// Status reports the user's most recent durable request regardless of
// the in-memory conversation.
func (f *Flow) Status(ctx context.Context, userID int64) *Reply {
	user, err := f.deps.Users.GetOrCreate(ctx, dto.UserCreate{TelegramID: userID})
	if err != nil {
		f.logger.Error("user lookup failed", "user_id", userID, "error", err)
		return &Reply{Text: msgTryAgainLater}
	}

	req, err := f.deps.Ledger.GetLatestByUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRequestNotFound) {
			return &Reply{Text: "You have no exchanges yet.", Choices: []Choice{{Label: "New exchange", Data: ChoiceNewExchange}}}
		}
		f.logger.Error("ledger read failed", "user_id", userID, "error", err)
		return &Reply{Text: msgTryAgainLater}
	}

	meta, _ := f.deps.Registry.Get(req.Asset)

	var b strings.Builder
	fmt.Fprintf(&b, "Latest exchange %s\n", req.Reference)
	fmt.Fprintf(&b, "Status: %s\n", req.Status)
	fmt.Fprintf(&b, "You send: %s %s\n", meta.Format(req.GrossAmount), req.Asset)
	fmt.Fprintf(&b, "You receive: %s USDT", money.FormatUSDT(req.NetPayout))

	reply := &Reply{Text: b.String()}
	if req.CheckURL != "" {
		reply.Links = append(reply.Links, Link{Label: "Redeem check", URL: req.CheckURL})
	}
	if req.Status == domain.StatusPending && req.InvoiceURL != "" {
		reply.Links = append(reply.Links, Link{Label: "Pay invoice", URL: req.InvoiceURL})
		reply.Choices = append(reply.Choices, Choice{Label: "I paid", Data: ChoiceCheckPayment})
	}
	return reply
}

// invoiceReply repeats the open invoice for an idempotent second
// confirm.
func (f *Flow) invoiceReply(ctx context.Context, requestID uuid.UUID) *Reply {
	req, err := f.deps.Ledger.Get(ctx, requestID)
	if err != nil {
		f.logger.Error("ledger read failed", "request_id", requestID, "error", err)
		return &Reply{Text: msgTryAgainLater, Choices: checkChoices()}
	}

	reply := &Reply{
		Text:    "Your invoice is already issued. Pay it, then tap \"I paid\".",
		Choices: checkChoices(),
	}
	if req.InvoiceURL != "" {
		reply.Links = []Link{{Label: "Pay invoice", URL: req.InvoiceURL}}
	}
	return reply
}

// reset clears a conversation whose state cannot serve the event. The
// fault is scoped to this conversation; durable rows stay as they are.
func (f *Flow) reset(sess *session) *Reply {
	sess.state = selectingCurrency{}
	return &Reply{
		Text:    msgRestart,
		Choices: f.assetChoices(),
	}
}

func (f *Flow) assetChoices() []Choice {
	assets := f.deps.Registry.List()
	choices := make([]Choice, 0, len(assets))
	for _, meta := range assets {
		choices = append(choices, Choice{
			Label: fmt.Sprintf("%s (%s)", meta.Name, meta.Code),
			Data:  ChoiceSelectPrefix + meta.Code,
		})
	}
	return choices
}

func confirmChoices() []Choice {
	return []Choice{
		{Label: "Confirm", Data: ChoiceConfirm},
		{Label: "Cancel", Data: ChoiceCancel},
	}
}

func checkChoices() []Choice {
	return []Choice{
		{Label: "I paid", Data: ChoiceCheckPayment},
		{Label: "Cancel", Data: ChoiceCancel},
	}
}

func alreadySettledReply(req *domain.ExchangeRequest) *Reply {
	reply := &Reply{
		Text:    fmt.Sprintf("Exchange %s is already settled.", req.Reference),
		Choices: []Choice{{Label: "New exchange", Data: ChoiceNewExchange}},
	}
	if req.CheckURL != "" {
		reply.Links = []Link{{Label: "Redeem check", URL: req.CheckURL}}
	}
	return reply
}

// quoteComplete is the defensive re-check before the side-effecting
// confirmation: every computed field must be present and consistent.
func quoteComplete(q core.Quote) bool {
	if q.Asset == "" || !q.GrossAmount.IsPositive() || !q.Rate.IsPositive() {
		return false
	}
	if !q.USDTValue.IsPositive() || q.NetPayout.IsNegative() || q.Commission.IsNegative() {
		return false
	}
	return q.Commission.Add(q.NetPayout).Equal(q.USDTValue)
}
