// Package cache holds the Redis-backed rate cache for multi-process
// deployments. The whole snapshot lives under a single key so Replace
// stays atomic, same as the in-memory cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Pelmeshek11/FlipEx/pkg/cache"
	"github.com/Pelmeshek11/FlipEx/pkg/provider/rates"
)

const snapshotKey = "rates:snapshot"

// RedisRateCache implements cache.RateCache on Redis. The key carries
// no TTL: staleness is the oracle's call and an old snapshot must
// survive as the last-resort rate source.
type RedisRateCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateCache creates a RedisRateCache from a connection URL.
func NewRedisRateCache(url string, logger *slog.Logger) (*RedisRateCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRateCache{client: redis.NewClient(opt), logger: logger}, nil
}

// Snapshot implements cache.RateCache.
func (c *RedisRateCache) Snapshot(ctx context.Context) (map[string]rates.RateInfo, error) {
	val, err := c.client.Get(ctx, snapshotKey).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]rates.RateInfo{}, nil
	}
	if err != nil {
		c.logger.Error("redis snapshot read failed", "error", err)
		return nil, err
	}

	var table map[string]rates.RateInfo
	if err := json.Unmarshal([]byte(val), &table); err != nil {
		c.logger.Error("redis snapshot decode failed", "error", err)
		return nil, err
	}
	return table, nil
}

// Replace implements cache.RateCache.
func (c *RedisRateCache) Replace(ctx context.Context, entries []rates.RateInfo) error {
	table := make(map[string]rates.RateInfo, len(entries))
	for _, entry := range entries {
		table[entry.Pair()] = entry
	}

	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, snapshotKey, data, 0).Err(); err != nil {
		c.logger.Error("redis snapshot write failed", "error", err)
		return err
	}

	c.logger.Debug("redis snapshot replaced", "pairs", len(table))
	return nil
}

// Ping verifies the Redis connection.
func (c *RedisRateCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ cache.RateCache = (*RedisRateCache)(nil)
