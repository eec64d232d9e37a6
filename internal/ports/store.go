package ports

import (
	"context"
	"time"
)

// KeyValueStore is the subset of a key-value store the registry needs.
// Get returns nil (no error) for a missing key; MGet returns nil entries for missing keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
}

// ViewCache caches rendered admin views. Get returns nil on miss.
//
// Invalidate advances the generation of each key it drops, so a writer that
// read Generation before a slow fetch can tell its result went stale.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, keys ...string) error
	Generation(ctx context.Context, key string) (int64, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}
