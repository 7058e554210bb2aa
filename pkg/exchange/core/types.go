// Package core implements the exchange pipeline's pure pieces: the
// amount validator and the commission calculator. Both derive decisions
// from the current oracle state and static policy limits without
// mutating anything.
package core

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

// Quote is the full computed tuple for a validated amount: everything
// the conversation needs to confirm, invoice and settle the exchange.
type Quote struct {
	Asset       string
	GrossAmount decimal.Decimal
	Rate        decimal.Decimal
	RateSource  string
	USDTValue   decimal.Decimal
	Commission  decimal.Decimal
	NetPayout   decimal.Decimal
}

// Limits carries the policy thresholds shared by all assets.
type Limits struct {
	// MinUSDT is the smallest accepted USDT-equivalent value.
	MinUSDT decimal.Decimal
	// CommissionRate is the commission fraction (0.05 = 5%).
	CommissionRate decimal.Decimal
}

// RateResolver resolves asset→USDT rates; satisfied by oracle.Oracle.
type RateResolver interface {
	Rate(ctx context.Context, asset string) (rates.RateInfo, error)
}
