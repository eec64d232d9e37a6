package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	authmocks "github.com/ternsecure/tern-admin/internal/mocks/auth"
)

// stubLister serves a fixed account list and counts loads.
type stubLister struct {
	accounts []account.Account
	err      error
	calls    atomic.Int32
}

func (s *stubLister) ListAllAccounts(context.Context) ([]account.Account, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.accounts, nil
}

func sampleAccounts() []account.Account {
	return []account.Account{
		{UID: "u1", Email: "alice@corp.example.com", EmailVerified: true, CustomClaims: map[string]any{"role": "admin"}},
		{UID: "u2", Email: "bob@example.com", DisplayName: "Bobby Tables", Disabled: true},
		{UID: "u3", Email: "carol@corp.example.com", CustomClaims: map[string]any{"role": "staff"}},
		{UID: "u4", Email: "dave@example.com", EmailVerified: true, Disabled: true, CustomClaims: map[string]any{"role": "staff"}},
	}
}

func uidsOf(items []AccountView) []string {
	out := make([]string, 0, len(items))
	for _, v := range items {
		out = append(out, v.UID)
	}
	return out
}

func TestDirectoryService_List_Filters(t *testing.T) {
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{accounts: sampleAccounts()}})

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{name: "everything", q: Query{}, want: []string{"u1", "u2", "u3", "u4"}},
		{name: "status all", q: Query{Status: "all", Role: "all"}, want: []string{"u1", "u2", "u3", "u4"}},
		{name: "enabled", q: Query{Status: "enabled"}, want: []string{"u1", "u3"}},
		{name: "disabled", q: Query{Status: " Disabled "}, want: []string{"u2", "u4"}},
		{name: "role", q: Query{Role: "STAFF"}, want: []string{"u3", "u4"}},
		{name: "default role", q: Query{Role: "user"}, want: []string{"u2"}},
		{name: "search email", q: Query{Search: "CORP"}, want: []string{"u1", "u3"}},
		{name: "search uid", q: Query{Search: "u4"}, want: []string{"u4"}},
		{name: "search role", q: Query{Search: "admin"}, want: []string{"u1"}},
		{name: "search ignores display name", q: Query{Search: "tables"}, want: []string{}},
		{name: "combined", q: Query{Role: "staff", Status: "disabled", Search: "dave"}, want: []string{"u4"}},
		{name: "expr", q: Query{Expr: "emailVerified && !disabled"}, want: []string{"u1"}},
		{name: "expr with function", q: Query{Expr: "contains(email, 'corp')"}, want: []string{"u1", "u3"}},
		{name: "expr on derived fields", q: Query{Expr: "role == 'staff' && status == 'enabled'"}, want: []string{"u3"}},
		{name: "expr on display name", q: Query{Expr: "displayName"}, want: []string{"u2"}},
		{name: "expr yielding null", q: Query{Expr: "photoUrl"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.List(context.Background(), tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uidsOf(page.Items))
			assert.Equal(t, len(tt.want), page.Total)
		})
	}
}

func TestDirectoryService_List_InvalidQuery(t *testing.T) {
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{accounts: sampleAccounts()}})

	tests := []struct {
		name  string
		q     Query
		field string
	}{
		{name: "status", q: Query{Status: "locked"}, field: "status"},
		{name: "role", q: Query{Role: "root"}, field: "role"},
		{name: "expr syntax", q: Query{Expr: "[[["}, field: "expr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(context.Background(), tt.q)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}

	t.Run("expr runtime error", func(t *testing.T) {
		_, err := svc.List(context.Background(), Query{Expr: "abs(email)"})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestDirectoryService_List_Pagination(t *testing.T) {
	accounts := make([]account.Account, 0, 125)
	for i := range 125 {
		accounts = append(accounts, account.Account{UID: fmt.Sprintf("u%03d", i)})
	}
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{accounts: accounts}})
	ctx := context.Background()

	page, err := svc.List(ctx, Query{Page: 2, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 100, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 125, page.Total)
	require.Len(t, page.Items, 25)
	assert.Equal(t, "u100", page.Items[0].UID)

	page, err = svc.List(ctx, Query{Page: 0, PageSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 50)

	page, err = svc.List(ctx, Query{Page: 99, PageSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Items, 25)

	page, err = svc.List(ctx, Query{Search: "nobody", Page: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Zero(t, page.TotalPages)
	assert.Empty(t, page.Items)
}

func TestDirectoryService_Accounts_UsesViewCache(t *testing.T) {
	lister := &stubLister{accounts: sampleAccounts()}
	cache := authmocks.NewMemoryViewCache()
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: lister, Cache: cache})
	ctx := context.Background()

	first, err := svc.Accounts(ctx)
	require.NoError(t, err)
	second, err := svc.Accounts(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), lister.calls.Load())
	assert.Equal(t, uidsOfAccounts(first), uidsOfAccounts(second))

	require.NoError(t, cache.Invalidate(ctx, ViewAccountsKey))
	_, err = svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())
}

type invalidatingLister struct {
	stubLister
	cache *authmocks.MemoryViewCache
}

func (l *invalidatingLister) ListAllAccounts(ctx context.Context) ([]account.Account, error) {
	all, err := l.stubLister.ListAllAccounts(ctx)
	if l.calls.Load() == 1 {
		_ = l.cache.Invalidate(ctx, ViewAccountsKey)
	}
	return all, err
}

func TestDirectoryService_Accounts_SkipsCacheWhenInvalidatedDuringFetch(t *testing.T) {
	cache := authmocks.NewMemoryViewCache()
	lister := &invalidatingLister{stubLister: stubLister{accounts: sampleAccounts()}, cache: cache}
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: lister, Cache: cache})
	ctx := context.Background()

	_, err := svc.Accounts(ctx)
	require.NoError(t, err)
	raw, err := cache.Get(ctx, ViewAccountsKey)
	require.NoError(t, err)
	assert.Nil(t, raw)

	_, err = svc.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), lister.calls.Load())

	raw, err = cache.Get(ctx, ViewAccountsKey)
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestDirectoryService_Accounts_DiscardsCorruptCache(t *testing.T) {
	lister := &stubLister{accounts: sampleAccounts()}
	cache := authmocks.NewMemoryViewCache()
	require.NoError(t, cache.Set(context.Background(), ViewAccountsKey, []byte("not json")))
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: lister, Cache: cache})

	all, err := svc.Accounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, int32(1), lister.calls.Load())
}

func TestDirectoryService_List_ListerError(t *testing.T) {
	boom := errors.New("provider down")
	svc := NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{err: boom}})

	_, err := svc.List(context.Background(), Query{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestNewAccountView(t *testing.T) {
	v := NewAccountView(account.Account{UID: "u1", Disabled: true, CreatedAt: time.Unix(0, 0)})
	assert.Equal(t, StatusDisabled, v.Status)
	assert.Equal(t, account.RoleUser, v.Role)
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy([]any{}))
	assert.False(t, truthy(map[string]any{}))
	assert.True(t, truthy(0.0))
	assert.True(t, truthy("x"))
	assert.True(t, truthy([]any{1}))
}

func uidsOfAccounts(accts []account.Account) []string {
	out := make([]string, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.UID)
	}
	return out
}
