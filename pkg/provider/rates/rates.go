// Package rates defines the contract between the price oracle and the
// external exchange-rate source.
package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateInfo is one cached conversion rate between two assets.
type RateInfo struct {
	Source    string          `json:"source"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	Provider  string          `json:"provider"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Pair returns the cache key for this rate's currency pair.
func (r RateInfo) Pair() string {
	return r.Source + ":" + r.Target
}

// RateSource fetches the full current rate table from an external
// provider. Implementations must bound the call with a timeout; a
// failed fetch returns an error and leaves any previous snapshot to
// the caller's fallback policy.
type RateSource interface {
	FetchRates(ctx context.Context) ([]RateInfo, error)
	Name() string
}
