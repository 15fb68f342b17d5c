package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache provides Redis-backed caching of JSON-encodable values. A nil
// client turns every operation into a no-op miss.
type RedisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a new cache whose keys are namespaced by prefix.
func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisCache[T] {
	return &RedisCache[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache[T]) makeKey(key string) string {
	return c.prefix + key
}

// Get retrieves a cached value. Redis and decoding failures count as misses.
func (c *RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	if c.client == nil {
		return zero, false
	}

	data, err := c.client.Get(ctx, c.makeKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		slog.WarnContext(ctx, "Redis cache get failed", "error", err)
		return zero, false
	}

	var value T
	if err := json.Unmarshal([]byte(data), &value); err != nil {
		slog.WarnContext(ctx, "Failed to unmarshal cached value", "error", err)
		return zero, false
	}

	return value, true
}

// Set stores a value with the cache TTL.
func (c *RedisCache[T]) Set(ctx context.Context, key string, value T) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, c.makeKey(key), data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache set failed", "error", err)
	}

	return nil
}

// Delete removes a value from the cache.
func (c *RedisCache[T]) Delete(ctx context.Context, key string) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Del(ctx, c.makeKey(key)).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache delete failed", "error", err)
	}

	return nil
}
