package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ternsecure/tern-admin/config"
	redisadapter "github.com/ternsecure/tern-admin/internal/adapters/redis"
	"github.com/ternsecure/tern-admin/internal/data"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
	"github.com/ternsecure/tern-admin/internal/service"
)

const readyTimeout = 2 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Sessions  *service.SessionService
	SignIn    *service.SignInService
	Registry  *service.RegistryService
	Directory *service.DirectoryService
	Dashboard *service.DashboardService

	// Metrics is nil when metrics are disabled.
	Metrics *metrics.Metrics
	// Ready pings the backing stores for /healthz.
	Ready func(*http.Request) error
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config   *config.AppConfig
	Identity Identity
	Redis    redis.UniversalClient // Required
	// AuditDB is nil when the audit trail is disabled.
	AuditDB *sql.DB
	// Registerer receives the service collectors when metrics are enabled.
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

// NewServices wires the domain services onto the identity provider and stores.
func NewServices(deps ServiceDeps) (ServiceContainer, error) {
	switch {
	case deps.Config == nil:
		return ServiceContainer{}, errors.New("services: Config is required")
	case deps.Redis == nil:
		return ServiceContainer{}, errors.New("services: Redis is required")
	case deps.Identity.Provider == nil || deps.Identity.Passwords == nil:
		return ServiceContainer{}, errors.New("services: identity provider is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(deps.Registerer)
	}

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Provider: deps.Identity.Provider,
		Config:   sessionConfig(cfg),
		Logger:   logger,
		Metrics:  m,
	})

	signIn := service.NewSignInService(service.SignInServiceOptions{
		Passwords: deps.Identity.Passwords,
		Sessions:  sessions,
		Extras: service.SignInExtras{
			Federated: deps.Identity.Federated,
			Logger:    logger,
			Metrics:   m,
		},
	})

	views := data.NewRedisViewCache(deps.Redis, cfg.Cache.ViewTTL)
	var auditLog ports.AuditLog
	if deps.AuditDB != nil {
		auditLog = data.NewAuditRepo(deps.AuditDB, nil)
	}

	registry := service.NewRegistryService(service.RegistryServiceOptions{
		Provider: deps.Identity.Provider,
		Store:    redisadapter.NewKVStore(deps.Redis),
		Config: service.RegistryConfig{
			CallTimeout: cfg.Session.CallTimeout,
			Logger:      logger,
			Audit:       auditLog,
			Views:       views,
			Metrics:     m,
		},
	})

	directory := service.NewDirectoryService(service.DirectoryServiceOptions{
		Accounts: registry,
		Cache:    views,
		Logger:   logger,
	})

	dashboard := service.NewDashboardService(service.DashboardServiceOptions{
		Directory: directory,
		Registry:  registry,
	})

	return ServiceContainer{
		Sessions:  sessions,
		SignIn:    signIn,
		Registry:  registry,
		Directory: directory,
		Dashboard: dashboard,
		Metrics:   m,
		Ready:     readiness(deps.Redis, deps.AuditDB),
	}, nil
}

func sessionConfig(cfg *config.AppConfig) service.SessionConfig {
	roles := make([]account.Role, 0, len(cfg.Auth.AdminRoles))
	for _, r := range cfg.Auth.AdminRoles {
		roles = append(roles, account.Role(r))
	}
	return service.SessionConfig{
		CookieName:        cfg.Session.CookieName,
		CookieTTL:         cfg.Session.CookieTTL,
		TokenCookieName:   cfg.Session.TokenCookieName,
		TokenCookieTTL:    cfg.Session.TokenCookieTTL,
		LegacyCookieNames: cfg.Session.LegacyCookieNames,
		CheckRevoked:      cfg.Session.CheckRevoked,
		Secure:            cfg.SecureCookies(),
		AdminRoles:        roles,
		CallTimeout:       cfg.Session.CallTimeout,
	}
}

func readiness(rdb redis.UniversalClient, db *sql.DB) func(*http.Request) error {
	return func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("audit db: %w", err)
			}
		}
		return nil
	}
}
