package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/money"
)

// Validator checks a user-declared (asset, amount) pair against the
// current rate and the configured policy limits, and produces the full
// commission-adjusted quote on success.
type Validator struct {
	resolver RateResolver
	registry *currency.Registry
	limits   Limits
	logger   *slog.Logger
}

// NewValidator creates a Validator.
func NewValidator(resolver RateResolver, registry *currency.Registry, limits Limits, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		resolver: resolver,
		registry: registry,
		limits:   limits,
		logger:   logger,
	}
}

// Validate resolves the asset's rate, converts the gross amount to
// USDT and applies the policy limits. Rejections wrap a domain
// sentinel and carry the boundary value expressed in the source
// currency for user legibility. Validate mutates no state.
func (v *Validator) Validate(ctx context.Context, asset string, amount decimal.Decimal) (*Quote, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrAmountNotPositive
	}

	meta, ok := v.registry.Get(asset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", asset, domain.ErrUnsupportedAsset)
	}

	info, err := v.resolver.Rate(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", asset, currency.Quote, domain.ErrRateUnavailable)
	}

	usdtValue := amount.Mul(info.Rate)

	if usdtValue.LessThan(v.limits.MinUSDT) {
		minSource := v.limits.MinUSDT.Div(info.Rate)
		return nil, fmt.Errorf("%w: minimum is %s %s (~%s USDT), got ~%s USDT",
			domain.ErrBelowMinimum,
			meta.Format(minSource), asset,
			money.FormatUSDT(v.limits.MinUSDT),
			money.FormatUSDT(usdtValue))
	}

	// Policy maximum applies to the gross source-currency amount; the
	// exact boundary is accepted.
	if amount.GreaterThan(meta.MaxAmount) {
		return nil, fmt.Errorf("%w: maximum is %s %s (~%s USDT)",
			domain.ErrAboveMaximum,
			meta.Format(meta.MaxAmount), asset,
			money.FormatUSDT(meta.MaxAmount.Mul(info.Rate)))
	}

	commission, net, err := Split(usdtValue, v.limits.CommissionRate)
	if err != nil {
		return nil, err
	}

	v.logger.Info("amount validated",
		"asset", asset,
		"amount", amount,
		"rate", info.Rate,
		"usdt_value", usdtValue,
		"rate_source", info.Provider)

	return &Quote{
		Asset:       asset,
		GrossAmount: amount,
		Rate:        info.Rate,
		RateSource:  info.Provider,
		USDTValue:   usdtValue,
		Commission:  commission,
		NetPayout:   net,
	}, nil
}
