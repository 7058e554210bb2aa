package domain

import "errors"

// Recoverable policy and availability conditions. Callers wrap these
// with the boundary values relevant to the rejected input; the wrapped
// message is what the user sees.
var (
	// ErrRateUnavailable means no live, stale or fallback rate exists
	// for the requested asset.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrAmountNotPositive rejects zero or negative amounts.
	ErrAmountNotPositive = errors.New("amount must be greater than zero")

	// ErrBelowMinimum rejects amounts under the USDT minimum threshold.
	ErrBelowMinimum = errors.New("amount below minimum")

	// ErrAboveMaximum rejects amounts over the per-asset policy maximum.
	ErrAboveMaximum = errors.New("amount above maximum")

	// ErrUnsupportedAsset rejects asset codes outside the registry.
	ErrUnsupportedAsset = errors.New("unsupported asset")

	// ErrRequestNotFound means the ledger holds no such request.
	ErrRequestNotFound = errors.New("exchange request not found")
)
