package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternsecure/tern-admin/internal/ports"
)

var _ ports.ViewCache = (*RedisViewCache)(nil)

// RedisViewCache caches serialized admin views in Redis with a fixed TTL.
type RedisViewCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisViewCache creates a view cache. A non-positive ttl disables caching.
func NewRedisViewCache(client redis.UniversalClient, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{client: client, ttl: ttl}
}

// Set stores value under key for the configured TTL.
func (r *RedisViewCache) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if r.ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the cached value, or nil on a miss.
func (r *RedisViewCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	if r.ttl <= 0 {
		return nil, nil
	}

	result, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

func generationKey(key string) string { return key + ":gen" }

// Invalidate bumps each key's generation and then drops the keys.
// The counters are written one at a time so they need not share a cluster slot.
func (r *RedisViewCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if err := r.client.Incr(ctx, generationKey(k)).Err(); err != nil {
			return fmt.Errorf("redis incr: %w", err)
		}
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Generation returns how many times key has been invalidated.
func (r *RedisViewCache) Generation(ctx context.Context, key string) (int64, error) {
	if key == "" {
		return 0, errors.New("key cannot be empty")
	}
	if r.ttl <= 0 {
		return 0, nil
	}
	n, err := r.client.Get(ctx, generationKey(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return n, nil
}

// TTL reports the configured cache lifetime.
func (r *RedisViewCache) TTL() time.Duration { return r.ttl }
