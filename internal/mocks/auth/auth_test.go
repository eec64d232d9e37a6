package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternsecure/tern-admin/internal/ports"
)

func TestMockFederatedProvider_Begin_Deterministic(t *testing.T) {
	p := NewMockFederatedProvider()
	ctx := context.Background()

	url, state, nonce, err := p.Begin(ctx, ports.BeginInput{RedirectURL: "http://localhost/cb"})
	require.NoError(t, err)
	assert.Equal(t, "https://mock-idp/auth", url)
	assert.Equal(t, "state-1", state)
	assert.Equal(t, "nonce-1", nonce)

	_, state2, nonce2, err := p.Begin(ctx, ports.BeginInput{})
	require.NoError(t, err)
	assert.Equal(t, "state-2", state2)
	assert.Equal(t, "nonce-2", nonce2)
}

func TestMemoryKVStore_KeysAndMGet(t *testing.T) {
	kv := NewMemoryKVStore()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "disabled_user:b", []byte("B"), 0))
	require.NoError(t, kv.Set(ctx, "disabled_user:a", []byte("A"), 0))
	require.NoError(t, kv.Set(ctx, "view:accounts", []byte("V"), 0))

	keys, err := kv.Keys(ctx, "disabled_user:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"disabled_user:a", "disabled_user:b"}, keys)

	vals, err := kv.MGet(ctx, "disabled_user:a", "missing")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), vals[0])
	assert.Nil(t, vals[1])

	require.NoError(t, kv.Del(ctx, "disabled_user:a"))
	got, err := kv.Get(ctx, "disabled_user:a")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 2, kv.Len())
}

func TestMemoryCookieJar(t *testing.T) {
	jar := NewMemoryCookieJar(map[string]string{"_session": "legacy"})

	v, ok := jar.Get("_session")
	assert.True(t, ok)
	assert.Equal(t, "legacy", v)

	jar.Set("_tern", "tok", ports.CookieOptions{HTTPOnly: true, SameSite: ports.SameSiteStrict})
	assert.True(t, jar.Cookies["_tern"].Opts.HTTPOnly)

	jar.Delete("_session")
	_, ok = jar.Get("_session")
	assert.False(t, ok)
	assert.Equal(t, []string{"_session"}, jar.Deleted)
}
