// Package redis provides the Redis-backed key-value store used by the disabled-user registry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// scanBatch is the COUNT hint for SCAN iterations.
const scanBatch = 500

var _ ports.KeyValueStore = (*KVStore)(nil)

// KVStore implements ports.KeyValueStore on a go-redis UniversalClient.
// Keys uses SCAN rather than KEYS so large keyspaces do not block the server.
type KVStore struct {
	client redis.UniversalClient
}

// NewKVStore creates a new Redis-backed store.
func NewKVStore(client redis.UniversalClient) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return b, nil
}

// Set stores value; a zero ttl means no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *KVStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Keys returns every key matching pattern. On a cluster client each master is scanned.
func (s *KVStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		mu   sync.Mutex
		keys []string
	)
	scan := func(ctx context.Context, c redis.Cmdable) error {
		iter := c.Scan(ctx, 0, pattern, scanBatch).Iterator()
		var local []string
		for iter.Next(ctx) {
			local = append(local, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		mu.Lock()
		keys = append(keys, local...)
		mu.Unlock()
		return nil
	}

	var err error
	if cc, ok := s.client.(*redis.ClusterClient); ok {
		err = cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scan(ctx, node)
		})
	} else {
		err = scan(ctx, s.client)
	}
	if err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	// SCAN may return a key more than once.
	return dedupe(keys), nil
}

// MGet returns values in key order with nil for missing keys.
// Cluster clients cannot MGET across slots, so keys are fetched one by one in a pipeline there.
func (s *KVStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if _, ok := s.client.(*redis.ClusterClient); ok {
		return s.pipelinedGet(ctx, keys)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[i] = []byte(str)
		}
	}
	return out, nil
}

func (s *KVStore) pipelinedGet(ctx context.Context, keys []string) ([][]byte, error) {
	cmds := make([]*redis.StringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.Get(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipelined get: %w", err)
	}
	out := make([][]byte, len(keys))
	for i, c := range cmds {
		b, cerr := c.Bytes()
		if cerr == nil {
			out[i] = b
		}
	}
	return out, nil
}

// Ping checks connectivity.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
