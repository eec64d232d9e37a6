package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/bootstrap"
	"github.com/ternsecure/tern-admin/internal/data"
	"github.com/ternsecure/tern-admin/internal/service"
)

// Globals carries shared dependencies into every command's Run.
type Globals struct {
	Out    io.Writer
	Logger *slog.Logger
	Actor  string

	// Open connects the stores and identity provider. Tests replace it.
	Open func(ctx context.Context, logger *slog.Logger) (*Admin, error)
	// Migrate applies the audit schema and returns the versions it applied.
	Migrate func(ctx context.Context, logger *slog.Logger) ([]string, error)
}

// Admin is the slice of the service graph the commands use.
type Admin struct {
	Registry  *service.RegistryService
	Directory *service.DirectoryService
	Close     func() error
}

func (g *Globals) open(ctx context.Context) (*Admin, context.Context, error) {
	if g.Open == nil {
		return nil, ctx, errors.New("no admin backend configured")
	}
	admin, err := g.Open(ctx, g.Logger)
	if err != nil {
		return nil, ctx, err
	}
	return admin, service.WithActor(ctx, g.Actor), nil
}

func (a *Admin) close(logger *slog.Logger) {
	if a.Close == nil {
		return
	}
	if err := a.Close(); err != nil {
		logger.Error("close admin backend failed", "error", err)
	}
}

func loadConfig() (config.AppConfig, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return cfg, err
	}
	if err := bootstrap.ValidateConfig(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openAdmin builds the registry and directory the same way the server does.
func openAdmin(ctx context.Context, logger *slog.Logger) (*Admin, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Observability.Metrics.Enabled = false

	dbCfg := bootstrap.DatabaseConfig{Audit: cfg.Audit, Redis: cfg.Redis, Logger: logger}
	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{redisClient}
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	deps := bootstrap.ServiceDeps{Config: &cfg, Redis: redisClient, Logger: logger}
	if cfg.Audit.Enabled {
		db, err := bootstrap.ConnectDB(ctx, dbCfg)
		if err != nil {
			return nil, errors.Join(err, closeAll())
		}
		closers = append(closers, db)
		deps.AuditDB = db
	}

	deps.Identity, err = bootstrap.BuildIdentity(ctx, bootstrap.IdentityConfig{Auth: cfg.Auth, Logger: logger})
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	svc, err := bootstrap.NewServices(deps)
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	return &Admin{Registry: svc.Registry, Directory: svc.Directory, Close: closeAll}, nil
}

// migrateAudit connects to the audit database even when the trail is disabled.
func migrateAudit(ctx context.Context, logger *slog.Logger) ([]string, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{Audit: cfg.Audit, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close database failed", "error", cerr)
		}
	}()
	applied, err := data.RunMigrations(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return applied, nil
}
