package oracle

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pelmeshek11/FlipEx/pkg/cache"
	"github.com/Pelmeshek11/FlipEx/pkg/domain"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

type stubSource struct {
	rates []rates.RateInfo
	err   error
	calls int
}

func (s *stubSource) FetchRates(context.Context) ([]rates.RateInfo, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rates, nil
}

func (s *stubSource) Name() string { return "stub" }

func rate(from, to, value string, fetchedAt time.Time) rates.RateInfo {
	return rates.RateInfo{
		Source:    from,
		Target:    to,
		Rate:      decimal.RequireFromString(value),
		Provider:  "stub",
		FetchedAt: fetchedAt,
	}
}

func newTestOracle(t *testing.T, source *stubSource, cfg Config) (*Oracle, *cache.MemoryRateCache, time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if cfg.TTL == 0 {
		cfg.TTL = 300 * time.Second
	}
	c := cache.NewMemoryRateCache()
	o := New(source, c, cfg, slog.Default())
	o.now = func() time.Time { return now }
	return o, c, now
}

func TestRateUSDTAlwaysOne(t *testing.T) {
	source := &stubSource{}
	o, _, _ := newTestOracle(t, source, Config{})

	info, err := o.Rate(context.Background(), "USDT")

	require.NoError(t, err)
	assert.True(t, info.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "internal", info.Provider)
	assert.Zero(t, source.calls, "USDT must not hit the source")
}

func TestRateFreshCacheHitSkipsSource(t *testing.T) {
	source := &stubSource{}
	o, c, now := newTestOracle(t, source, Config{})
	require.NoError(t, c.Replace(context.Background(), []rates.RateInfo{
		rate("TON", "USDT", "2.0", now.Add(-time.Minute)),
	}))

	info, err := o.Rate(context.Background(), "TON")

	require.NoError(t, err)
	assert.True(t, info.Rate.Equal(decimal.RequireFromString("2.0")))
	assert.Zero(t, source.calls)
}

func TestRateExpiredEntryTriggersRefresh(t *testing.T) {
	source := &stubSource{}
	o, c, now := newTestOracle(t, source, Config{})
	source.rates = []rates.RateInfo{rate("TON", "USDT", "2.5", now)}
	require.NoError(t, c.Replace(context.Background(), []rates.RateInfo{
		rate("TON", "USDT", "2.0", now.Add(-10*time.Minute)),
	}))

	info, err := o.Rate(context.Background(), "TON")

	require.NoError(t, err)
	assert.True(t, info.Rate.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 1, source.calls)

	// Cache now holds the refreshed table.
	table, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, table["TON:USDT"].Rate.Equal(decimal.RequireFromString("2.5")))
}

func TestRateStaleServedWhenRefreshFails(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	o, c, now := newTestOracle(t, source, Config{
		Fallback: map[string]decimal.Decimal{"TON": decimal.NewFromInt(9)},
	})
	require.NoError(t, c.Replace(context.Background(), []rates.RateInfo{
		rate("TON", "USDT", "2.0", now.Add(-time.Hour)),
	}))

	info, err := o.Rate(context.Background(), "TON")

	require.NoError(t, err)
	// Stale entry wins over the configured fallback.
	assert.True(t, info.Rate.Equal(decimal.RequireFromString("2.0")))
}

func TestRateFallbackWhenNothingCached(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	o, _, _ := newTestOracle(t, source, Config{
		Fallback: map[string]decimal.Decimal{"BTC": decimal.NewFromInt(30000)},
	})

	info, err := o.Rate(context.Background(), "BTC")

	require.NoError(t, err)
	assert.True(t, info.Rate.Equal(decimal.NewFromInt(30000)))
	assert.Equal(t, "fallback", info.Provider)
}

func TestRateUnavailableWithoutFallback(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	o, _, _ := newTestOracle(t, source, Config{})

	_, err := o.Rate(context.Background(), "BTC")

	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}

func TestRateTriangulatesThroughBridge(t *testing.T) {
	source := &stubSource{}
	o, c, now := newTestOracle(t, source, Config{})
	require.NoError(t, c.Replace(context.Background(), []rates.RateInfo{
		rate("NOT", "BTC", "0.0000002", now),
		rate("BTC", "USDT", "30000", now),
	}))

	info, err := o.Rate(context.Background(), "NOT")

	require.NoError(t, err)
	assert.True(t, info.Rate.Equal(decimal.RequireFromString("0.006")),
		"got %s", info.Rate)
	assert.Zero(t, source.calls)
}

func TestSnapshotRefreshesAndSorts(t *testing.T) {
	source := &stubSource{}
	o, _, now := newTestOracle(t, source, Config{})
	source.rates = []rates.RateInfo{
		rate("TON", "USDT", "2.0", now),
		rate("BTC", "USDT", "30000", now),
	}

	list, err := o.Snapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "BTC:USDT", list[0].Pair())
	assert.Equal(t, "TON:USDT", list[1].Pair())
	assert.Equal(t, 1, source.calls)
}

func TestSnapshotUnavailableWhenEmptyAndSourceDown(t *testing.T) {
	source := &stubSource{err: errors.New("connection refused")}
	o, _, _ := newTestOracle(t, source, Config{})

	_, err := o.Snapshot(context.Background())

	require.ErrorIs(t, err, domain.ErrRateUnavailable)
}
