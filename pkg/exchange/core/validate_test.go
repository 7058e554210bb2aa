package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

type stubResolver struct {
	rates map[string]decimal.Decimal
}

func (s *stubResolver) Rate(_ context.Context, asset string) (rates.RateInfo, error) {
	rate, ok := s.rates[asset]
	if !ok {
		return rates.RateInfo{}, domain.ErrRateUnavailable
	}
	return rates.RateInfo{
		Source:    asset,
		Target:    currency.Quote,
		Rate:      rate,
		Provider:  "stub",
		FetchedAt: time.Now(),
	}, nil
}

func testLimits() Limits {
	return Limits{
		MinUSDT:        decimal.RequireFromString("0.01"),
		CommissionRate: decimal.RequireFromString("0.05"),
	}
}

func testRegistry() *currency.Registry {
	r := currency.NewRegistry()
	// Scenario limits: 0.5 TON maximum.
	r.Register(currency.AssetMeta{
		Code:      "TON",
		Name:      "Toncoin",
		Decimals:  3,
		MaxAmount: decimal.RequireFromString("0.5"),
	})
	return r
}

func TestValidateAcceptsWithinLimits(t *testing.T) {
	resolver := &stubResolver{rates: map[string]decimal.Decimal{
		"TON": decimal.RequireFromString("2.0"),
	}}
	v := NewValidator(resolver, testRegistry(), testLimits(), nil)

	quote, err := v.Validate(context.Background(), "TON", decimal.RequireFromString("0.5"))

	require.NoError(t, err)
	assert.True(t, quote.USDTValue.Equal(decimal.RequireFromString("1.0")))
	assert.True(t, quote.Commission.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, quote.NetPayout.Equal(decimal.RequireFromString("0.95")))
	assert.Equal(t, "TON", quote.Asset)
}

func TestValidateRejectsNonPositive(t *testing.T) {
	v := NewValidator(&stubResolver{}, testRegistry(), testLimits(), nil)

	_, err := v.Validate(context.Background(), "TON", decimal.Zero)
	require.ErrorIs(t, err, domain.ErrAmountNotPositive)

	_, err = v.Validate(context.Background(), "TON", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, domain.ErrAmountNotPositive)
}

func TestValidateRejectsUnsupportedAsset(t *testing.T) {
	v := NewValidator(&stubResolver{}, testRegistry(), testLimits(), nil)

	_, err := v.Validate(context.Background(), "DOGE", decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrUnsupportedAsset)
}

func TestValidateRejectsWhenRateUnavailable(t *testing.T) {
	v := NewValidator(&stubResolver{}, testRegistry(), testLimits(), nil)

	_, err := v.Validate(context.Background(), "BTC", decimal.RequireFromString("0.00001"))
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestValidateMinimumBoundary(t *testing.T) {
	resolver := &stubResolver{rates: map[string]decimal.Decimal{
		"TON": decimal.RequireFromString("2.0"),
	}}
	v := NewValidator(resolver, testRegistry(), testLimits(), nil)

	// Exactly 0.01 USDT equivalent is accepted.
	_, err := v.Validate(context.Background(), "TON", decimal.RequireFromString("0.005"))
	require.NoError(t, err)

	// One unit of precision below is rejected, boundary reported in TON.
	_, err = v.Validate(context.Background(), "TON", decimal.RequireFromString("0.004999"))
	require.ErrorIs(t, err, domain.ErrBelowMinimum)
	assert.Contains(t, err.Error(), "0.005 TON")
}

func TestValidateMaximumBoundary(t *testing.T) {
	resolver := &stubResolver{rates: map[string]decimal.Decimal{
		"TON": decimal.RequireFromString("2.0"),
	}}
	v := NewValidator(resolver, testRegistry(), testLimits(), nil)

	// The configured maximum itself is accepted.
	_, err := v.Validate(context.Background(), "TON", decimal.RequireFromString("0.5"))
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), "TON", decimal.RequireFromString("0.501"))
	require.ErrorIs(t, err, domain.ErrAboveMaximum)
	assert.Contains(t, err.Error(), "0.500 TON")
}

func TestValidateZeroDecimalAssetKeepsTrueFraction(t *testing.T) {
	resolver := &stubResolver{rates: map[string]decimal.Decimal{
		"NOT": decimal.RequireFromString("0.006"),
	}}
	v := NewValidator(resolver, currency.NewRegistry(), testLimits(), nil)

	quote, err := v.Validate(context.Background(), "NOT", decimal.RequireFromString("2.5"))

	require.NoError(t, err)
	// Thresholds operate on the fractional value; only display truncates.
	assert.True(t, quote.GrossAmount.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, quote.USDTValue.Equal(decimal.RequireFromString("0.015")))

	meta, _ := currency.NewRegistry().Get("NOT")
	assert.Equal(t, "2", meta.Format(quote.GrossAmount))
}

func TestValidateUSDTPassThrough(t *testing.T) {
	resolver := &stubResolver{rates: map[string]decimal.Decimal{
		"USDT": decimal.NewFromInt(1),
	}}
	v := NewValidator(resolver, currency.NewRegistry(), testLimits(), nil)

	quote, err := v.Validate(context.Background(), "USDT", decimal.RequireFromString("0.5"))

	require.NoError(t, err)
	assert.True(t, quote.USDTValue.Equal(decimal.RequireFromString("0.5")))

	_, err = v.Validate(context.Background(), "USDT", decimal.RequireFromString("0.51"))
	require.ErrorIs(t, err, domain.ErrAboveMaximum)
}
