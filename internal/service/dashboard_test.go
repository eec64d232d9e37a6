package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternsecure/tern-admin/internal/data"
	"github.com/ternsecure/tern-admin/internal/domain/account"
)

type stubDisabled []account.DisabledUserRecord

func (s stubDisabled) ListDisabled(context.Context) []account.DisabledUserRecord { return s }

func TestDashboardService_Overview(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	lister := &stubLister{accounts: []account.Account{
		{UID: "fresh", CreatedAt: now.Add(-2 * day), LastSignInAt: now.Add(-day)},
		{UID: "old-active", CreatedAt: now.Add(-400 * day), LastSignInAt: now.Add(-3 * day)},
		{UID: "stale", CreatedAt: now.Add(-400 * day), LastSignInAt: now.Add(-90 * day)},
		{UID: "never", CreatedAt: now.Add(-5 * day)},
		{UID: "off", CreatedAt: now.Add(-400 * day), Disabled: true},
	}}

	var records stubDisabled
	for i := range 7 {
		records = append(records, account.DisabledUserRecord{UID: string(rune('a' + i)), DisabledTime: now.Add(-time.Duration(i) * time.Hour)})
	}

	svc := NewDashboardService(DashboardServiceOptions{
		Directory: NewDirectoryService(DirectoryServiceOptions{Accounts: lister}),
		Registry:  records,
		Clock:     data.NewFixedTimeProvider(now),
	})

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, o.TotalUsers)
	assert.Equal(t, 4, o.ActiveUsers)
	assert.Equal(t, 1, o.DisabledUsers)
	assert.Equal(t, 2, o.RecentSignIns)
	assert.Equal(t, 2, o.NewUsers)
	assert.Equal(t, 2, o.NeverSignedIn)
	assert.Equal(t, 7, o.DisabledUsersFromRegistry)
	require.Len(t, o.LatestDisabled, 5)
	assert.Equal(t, "a", o.LatestDisabled[0].UID)
	assert.Equal(t, now, o.GeneratedAt)
}

func TestDashboardService_Overview_Empty(t *testing.T) {
	svc := NewDashboardService(DashboardServiceOptions{
		Directory: NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{}}),
		Registry:  stubDisabled{},
	})

	o, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Zero(t, o.TotalUsers)
	assert.Empty(t, o.LatestDisabled)
	assert.False(t, o.GeneratedAt.IsZero())
}

func TestDashboardService_Overview_AccountError(t *testing.T) {
	svc := NewDashboardService(DashboardServiceOptions{
		Directory: NewDirectoryService(DirectoryServiceOptions{Accounts: &stubLister{err: errors.New("boom")}}),
		Registry:  stubDisabled{},
	})

	_, err := svc.Overview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load accounts")
}

func TestNewDashboardService_RequiresDependencies(t *testing.T) {
	assert.Panics(t, func() { NewDashboardService(DashboardServiceOptions{Registry: stubDisabled{}}) })
}
