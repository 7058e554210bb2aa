// Package cache defines the rate cache the oracle reads through. The
// cache holds a whole-table snapshot and is replaced atomically on
// refresh: readers never observe a partially updated table. Entries
// carry their fetch timestamp; freshness is the oracle's decision, so a
// stale snapshot stays available for last-resort reuse.
package cache

import (
	"context"
	"sync"

	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

// RateCache stores the latest rate-table snapshot keyed by currency
// pair ("BTC:USDT").
type RateCache interface {
	// Snapshot returns the current table. An empty map means the cache
	// has never been filled.
	Snapshot(ctx context.Context) (map[string]rates.RateInfo, error)

	// Replace swaps the whole table for a new one.
	Replace(ctx context.Context, entries []rates.RateInfo) error
}

// MemoryRateCache is the in-process RateCache. The snapshot map is
// swapped under the lock and never mutated after publication.
type MemoryRateCache struct {
	mu    sync.RWMutex
	table map[string]rates.RateInfo
}

// NewMemoryRateCache creates an empty in-memory rate cache.
func NewMemoryRateCache() *MemoryRateCache {
	return &MemoryRateCache{table: make(map[string]rates.RateInfo)}
}

// Snapshot implements RateCache.
func (c *MemoryRateCache) Snapshot(_ context.Context) (map[string]rates.RateInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.table, nil
}

// Replace implements RateCache.
func (c *MemoryRateCache) Replace(_ context.Context, entries []rates.RateInfo) error {
	table := make(map[string]rates.RateInfo, len(entries))
	for _, entry := range entries {
		table[entry.Pair()] = entry
	}

	c.mu.Lock()
	c.table = table
	c.mu.Unlock()
	return nil
}

var _ RateCache = (*MemoryRateCache)(nil)
