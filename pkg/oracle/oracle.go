// Package oracle resolves asset→USDT conversion rates through a cached
// snapshot of the external rate table, with stale reuse and static
// fallback rates when the source is unreachable. A resolution never
// fails with a transport fault: the only error callers see is
// domain.ErrRateUnavailable after the whole chain is exhausted.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Pelmeshek11/FlipEx/pkg/cache"
	"github.com/Pelmeshek11/FlipEx/pkg/currency"
	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

// Config carries the oracle's policy knobs.
type Config struct {
	// TTL is the window within which a cached rate counts as fresh.
	TTL time.Duration
	// Fallback maps asset codes to statically configured asset→USDT
	// rates used when neither a live nor a stale rate exists.
	Fallback map[string]decimal.Decimal
}

// Oracle is the price oracle cache. It is constructed once at process
// start and shared; the cache snapshot is replaced atomically so
// concurrent readers never see a partial table.
type Oracle struct {
	source   rates.RateSource
	cache    cache.RateCache
	ttl      time.Duration
	fallback map[string]decimal.Decimal
	logger   *slog.Logger

	now func() time.Time
}

// New creates an Oracle over the given source and cache.
func New(source rates.RateSource, rateCache cache.RateCache, cfg Config, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{
		source:   source,
		cache:    rateCache,
		ttl:      cfg.TTL,
		fallback: cfg.Fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Rate resolves the asset→USDT rate. Resolution order: fresh cache,
// refreshed cache, stale cache entry, static fallback. USDT always
// resolves to 1 without touching the source.
func (o *Oracle) Rate(ctx context.Context, asset string) (rates.RateInfo, error) {
	if asset == currency.Quote {
		return rates.RateInfo{
			Source:    asset,
			Target:    currency.Quote,
			Rate:      decimal.NewFromInt(1),
			Provider:  "internal",
			FetchedAt: o.now(),
		}, nil
	}

	table, err := o.cache.Snapshot(ctx)
	if err != nil {
		o.logger.Error("rate cache read failed", "error", err)
		table = nil
	}

	if info, ok := lookup(table, asset, currency.Quote); ok && o.fresh(info) {
		return info, nil
	}

	refreshed, refreshErr := o.refresh(ctx)
	if refreshErr == nil {
		if info, ok := lookup(refreshed, asset, currency.Quote); ok {
			return info, nil
		}
	} else {
		o.logger.Error("rate refresh failed", "source", o.source.Name(), "error", refreshErr)
	}

	// Stale-but-present beats a static guess.
	if info, ok := lookup(table, asset, currency.Quote); ok {
		o.logger.Warn("serving stale exchange rate",
			"pair", info.Pair(), "age", o.now().Sub(info.FetchedAt))
		return info, nil
	}

	if rate, ok := o.fallback[asset]; ok {
		o.logger.Warn("serving fallback exchange rate", "asset", asset, "rate", rate)
		return rates.RateInfo{
			Source:    asset,
			Target:    currency.Quote,
			Rate:      rate,
			Provider:  "fallback",
			FetchedAt: o.now(),
		}, nil
	}

	return rates.RateInfo{}, fmt.Errorf("%s/%s: %w", asset, currency.Quote, domain.ErrRateUnavailable)
}

// Snapshot returns the current rate table sorted by pair, refreshing it
// first when stale or empty. A failed refresh degrades to whatever the
// cache still holds.
func (o *Oracle) Snapshot(ctx context.Context) ([]rates.RateInfo, error) {
	table, err := o.cache.Snapshot(ctx)
	if err != nil {
		o.logger.Error("rate cache read failed", "error", err)
		table = nil
	}

	if o.tableStale(table) {
		if refreshed, refreshErr := o.refresh(ctx); refreshErr == nil {
			table = refreshed
		} else {
			o.logger.Error("rate refresh failed", "source", o.source.Name(), "error", refreshErr)
		}
	}

	if len(table) == 0 {
		return nil, domain.ErrRateUnavailable
	}

	out := make([]rates.RateInfo, 0, len(table))
	for _, info := range table {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pair() < out[j].Pair() })
	return out, nil
}

func (o *Oracle) refresh(ctx context.Context) (map[string]rates.RateInfo, error) {
	fetched, err := o.source.FetchRates(ctx)
	if err != nil {
		return nil, err
	}

	if err := o.cache.Replace(ctx, fetched); err != nil {
		o.logger.Error("rate cache replace failed", "error", err)
	}

	table := make(map[string]rates.RateInfo, len(fetched))
	for _, info := range fetched {
		table[info.Pair()] = info
	}
	o.logger.Info("rate cache refreshed", "source", o.source.Name(), "rates", len(table))
	return table, nil
}

func (o *Oracle) fresh(info rates.RateInfo) bool {
	return o.now().Sub(info.FetchedAt) <= o.ttl
}

func (o *Oracle) tableStale(table map[string]rates.RateInfo) bool {
	if len(table) == 0 {
		return true
	}
	for _, info := range table {
		if !o.fresh(info) {
			return true
		}
	}
	return false
}

// bridge assets tried when no direct pair exists in the table.
var bridges = []string{"BTC", "TON"}

// lookup finds from→to in the table, either directly or triangulated
// through a bridge asset. A triangulated rate carries the older of the
// two legs' timestamps so staleness is judged pessimistically.
func lookup(table map[string]rates.RateInfo, from, to string) (rates.RateInfo, bool) {
	if info, ok := table[from+":"+to]; ok {
		return info, true
	}

	for _, bridge := range bridges {
		if bridge == from || bridge == to {
			continue
		}
		first, ok := table[from+":"+bridge]
		if !ok {
			continue
		}
		second, ok := table[bridge+":"+to]
		if !ok {
			continue
		}

		fetchedAt := first.FetchedAt
		if second.FetchedAt.Before(fetchedAt) {
			fetchedAt = second.FetchedAt
		}
		return rates.RateInfo{
			Source:    from,
			Target:    to,
			Rate:      first.Rate.Mul(second.Rate),
			Provider:  first.Provider,
			FetchedAt: fetchedAt,
		}, true
	}

	return rates.RateInfo{}, false
}
