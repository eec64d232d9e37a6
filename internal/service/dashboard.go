package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	"github.com/ternsecure/tern-admin/internal/ports"
	"golang.org/x/sync/errgroup"
)

const (
	recentWindow        = 30 * 24 * time.Hour
	latestDisabledLimit = 5
)

// Overview holds the aggregate dashboard metrics.
type Overview struct {
	TotalUsers                int                          `json:"totalUsers"`
	ActiveUsers               int                          `json:"activeUsers"`
	DisabledUsers             int                          `json:"disabledUsers"`
	RecentSignIns             int                          `json:"recentSignIns"`
	NewUsers                  int                          `json:"newUsers"`
	NeverSignedIn             int                          `json:"neverSignedIn"`
	DisabledUsersFromRegistry int                          `json:"disabledUsersFromRegistry"`
	LatestDisabled            []account.DisabledUserRecord `json:"latestDisabled"`
	GeneratedAt               time.Time                    `json:"generatedAt"`
}

// DisabledLister lists registry records newest first.
type DisabledLister interface {
	ListDisabled(ctx context.Context) []account.DisabledUserRecord
}

// DashboardServiceOptions groups dependencies for DashboardService.
type DashboardServiceOptions struct {
	Directory *DirectoryService // Required
	Registry  DisabledLister    // Required
	Clock     ports.Clock
}

// DashboardService computes the admin overview.
type DashboardService struct {
	directory *DirectoryService
	registry  DisabledLister
	clock     ports.Clock
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(opts DashboardServiceOptions) *DashboardService {
	if opts.Directory == nil || opts.Registry == nil {
		panic("dashboard service: Directory and Registry are required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &DashboardService{directory: opts.Directory, registry: opts.Registry, clock: clock}
}

// Overview loads the account listing and the registry concurrently and summarises them.
func (d *DashboardService) Overview(ctx context.Context) (Overview, error) {
	var (
		accounts []account.Account
		disabled []account.DisabledUserRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := d.directory.Accounts(gctx)
		if err != nil {
			return fmt.Errorf("load accounts: %w", err)
		}
		accounts = all
		return nil
	})
	g.Go(func() error {
		disabled = d.registry.ListDisabled(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	now := d.clock.Now()
	cutoff := now.Add(-recentWindow)
	o := Overview{
		TotalUsers:                len(accounts),
		DisabledUsersFromRegistry: len(disabled),
		LatestDisabled:            disabled[:min(len(disabled), latestDisabledLimit)],
		GeneratedAt:               now.UTC(),
	}
	for _, a := range accounts {
		if a.Disabled {
			o.DisabledUsers++
		} else {
			o.ActiveUsers++
		}
		if a.NeverSignedIn() {
			o.NeverSignedIn++
		} else if a.LastSignInAt.After(cutoff) {
			o.RecentSignIns++
		}
		if a.CreatedAt.After(cutoff) {
			o.NewUsers++
		}
	}
	slog.DebugContext(ctx, "dashboard overview computed", "total", o.TotalUsers, "disabled", o.DisabledUsers)
	return o, nil
}
