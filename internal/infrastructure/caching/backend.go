// Package caching provides the Redis-backed aggregate cache that sits in
// front of the analytics computations. Cache failures are never surfaced:
// a broken backend degrades to computing every aggregate fresh.
package caching

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/formflowhq/formflow-go/internal/infrastructure/observability/logging"
)

// Backend is the minimal key-value contract the aggregate cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisBackend implements Backend on a go-redis client.
type RedisBackend struct {
	rdb *goredis.Client
}

// NewRedisBackend connects to Redis and verifies the connection with a ping.
func NewRedisBackend(addr, password string, db int, logger *logging.ChanneledLogger) (*RedisBackend, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Cache().Info("Redis connection established", "addr", addr, "db", db)
	return &RedisBackend{rdb: rdb}, nil
}

// Get retrieves a value. Returns goredis.Nil when the key is absent.
func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	return b.rdb.Get(ctx, key).Result()
}

// Set stores a value with a TTL.
func (b *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.rdb.Set(ctx, key, value, ttl).Err()
}

// Close releases the underlying client.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
