// Package auth contains simple hand-written test doubles for the admin ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/ternsecure/tern-admin/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.FederatedProvider = (*MockFederatedProvider)(nil)
	_ ports.KeyValueStore     = (*MemoryKVStore)(nil)
	_ ports.CookieJar         = (*MemoryCookieJar)(nil)
	_ ports.ViewCache         = (*MemoryViewCache)(nil)
)

// MockFederatedProvider simulates an upstream OIDC IdP with deterministic state/nonce handling.
type MockFederatedProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.FederatedIdentity, error)

	ID          string
	AuthURL     string
	DefaultUser ports.FederatedIdentity

	mu        sync.Mutex
	callCount int
}

// NewMockFederatedProvider creates a MockFederatedProvider with sensible defaults.
func NewMockFederatedProvider() *MockFederatedProvider {
	return &MockFederatedProvider{
		ID:      "google.com",
		AuthURL: "https://mock-idp/auth",
		DefaultUser: ports.FederatedIdentity{
			Subject:    "mock-sub-1",
			Email:      "mock.user@example.com",
			RawIDToken: "upstream-id-token",
		},
	}
}

func (m *MockFederatedProvider) ProviderID() string { return m.ID }

func (m *MockFederatedProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()
	return m.AuthURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockFederatedProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.FederatedIdentity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	return m.DefaultUser, nil
}

// MemoryKVStore is an in-memory key-value store. Err* hooks inject failures per operation.
type MemoryKVStore struct {
	mu   sync.Mutex
	data map[string][]byte

	GetErr  error
	SetErr  error
	DelErr  error
	KeysErr error
	MGetErr error

	// Calls counts invocations by operation name.
	Calls map[string]int
}

// NewMemoryKVStore creates an empty MemoryKVStore.
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string][]byte), Calls: make(map[string]int)}
}

func (m *MemoryKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["get"]++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKVStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["set"]++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKVStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["del"]++
	if m.DelErr != nil {
		return m.DelErr
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Keys matches with path.Match, which agrees with Redis globbing for the patterns used here.
func (m *MemoryKVStore) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["keys"]++
	if m.KeysErr != nil {
		return nil, m.KeysErr
	}
	var out []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryKVStore) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["mget"]++
	if m.MGetErr != nil {
		return nil, m.MGetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := m.data[k]; ok {
			out[i] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Put writes a raw value, bypassing hooks. Useful for seeding corrupt entries.
func (m *MemoryKVStore) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

// Len returns the number of stored keys.
func (m *MemoryKVStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// CookieRecord is a cookie as last set on a MemoryCookieJar.
type CookieRecord struct {
	Value string
	Opts  ports.CookieOptions
}

// MemoryCookieJar records cookie operations for assertions.
type MemoryCookieJar struct {
	Cookies map[string]CookieRecord
	Deleted []string
}

// NewMemoryCookieJar creates a jar seeded with name/value pairs.
func NewMemoryCookieJar(seed map[string]string) *MemoryCookieJar {
	j := &MemoryCookieJar{Cookies: make(map[string]CookieRecord)}
	for k, v := range seed {
		j.Cookies[k] = CookieRecord{Value: v}
	}
	return j
}

func (j *MemoryCookieJar) Get(name string) (string, bool) {
	c, ok := j.Cookies[name]
	if !ok || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *MemoryCookieJar) Set(name, value string, opts ports.CookieOptions) {
	j.Cookies[name] = CookieRecord{Value: value, Opts: opts}
}

func (j *MemoryCookieJar) Delete(name string) {
	delete(j.Cookies, name)
	j.Deleted = append(j.Deleted, name)
}

// MemoryViewCache is an in-memory ports.ViewCache.
type MemoryViewCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	gens        map[string]int64
	Invalidated int
}

// NewMemoryViewCache creates an empty MemoryViewCache.
func NewMemoryViewCache() *MemoryViewCache {
	return &MemoryViewCache{data: make(map[string][]byte), gens: make(map[string]int64)}
}

func (c *MemoryViewCache) Generation(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key], nil
}

func (c *MemoryViewCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *MemoryViewCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *MemoryViewCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidated++
	for _, k := range keys {
		c.gens[k]++
		delete(c.data, k)
	}
	return nil
}
