package caching

import (
	"context"
	"encoding/json"
	"time"

	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
)

// AggregateCache wraps a Backend with the read-through policy the analytics
// services use: try the cache, fall back to computing, then write back with
// a TTL. Concurrent misses may compute the same aggregate more than once;
// last write wins, which is acceptable because every compute of the same
// window produces the same value.
type AggregateCache struct {
	backend Backend
	ttl     time.Duration
	logger  *logging.ChanneledLogger
}

// NewAggregateCache creates a cache with the given TTL.
func NewAggregateCache(backend Backend, ttl time.Duration, logger *logging.ChanneledLogger) *AggregateCache {
	return &AggregateCache{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
}

// GetOrCompute returns the cached value under key, or computes and caches a
// fresh one. Every backend or decode error is logged and treated as a miss;
// a compute error is the only error a caller can see.
func GetOrCompute[T any](c *AggregateCache, ctx context.Context, key string, compute func() (T, error)) (T, error) {
	var zero T

	if c.backend != nil {
		start := time.Now()
		raw, err := c.backend.Get(ctx, key)
		if err == nil {
			var cached T
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				c.logger.LogCacheOperation("get", key, true, time.Since(start))
				return cached, nil
			}
			c.logger.Cache().Warn("Discarding undecodable cache entry", "key", key, "error", err.Error())
		}
		c.logger.LogCacheOperation("get", key, false, time.Since(start))
	}

	value, err := compute()
	if err != nil {
		return zero, err
	}

	if c.backend != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			c.logger.Cache().Warn("Failed to marshal aggregate for caching", "key", key, "error", err.Error())
			return value, nil
		}

		start := time.Now()
		if err := c.backend.Set(ctx, key, string(raw), c.ttl); err != nil {
			c.logger.Cache().Warn("Failed to write aggregate to cache", "key", key, "error", err.Error())
			return value, nil
		}
		c.logger.LogCacheOperation("set", key, false, time.Since(start))
	}

	return value, nil
}
