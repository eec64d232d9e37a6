// Command tern-admin serves the user administration console and its JSON API.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(slog.LevelInfo)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability.SlogLevel())

	if err = bootstrap.ValidateConfig(&cfg); err != nil {
		return err
	}
	logStartupInfo(ctx, logger, &cfg)

	dbCfg := bootstrap.DatabaseConfig{Audit: cfg.Audit, Redis: cfg.Redis, Logger: logger}
	redisClient, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer closeWithLog(ctx, logger, "redis", redisClient)

	auditDB, err := openAuditDB(ctx, &cfg, dbCfg, logger)
	if err != nil {
		return err
	}
	if auditDB != nil {
		defer closeWithLog(ctx, logger, "audit database", auditDB)
	}

	identity, err := bootstrap.BuildIdentity(ctx, bootstrap.IdentityConfig{Auth: cfg.Auth, Logger: logger})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := bootstrap.NewServices(bootstrap.ServiceDeps{
		Config:     &cfg,
		Identity:   identity,
		Redis:      redisClient,
		AuditDB:    auditDB,
		Registerer: reg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunHTTPServer(ctx, bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Gatherer: reg,
		Logger:   logger,
	})
}

// openAuditDB connects the audit trail when enabled; it returns nil otherwise.
func openAuditDB(ctx context.Context, cfg *config.AppConfig, dbCfg bootstrap.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	if !cfg.Audit.Enabled {
		logger.InfoContext(ctx, "audit trail disabled; admin actions are logged only")
		return nil, nil
	}
	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Audit.RunMigrationsOnStart {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		return db, nil
	}
	if err := bootstrap.RunMigrations(ctx, db, logger); err != nil {
		closeWithLog(ctx, logger, "audit database", db)
		return nil, err
	}
	return db, nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting tern-admin",
		"addr", cfg.HTTP.Addr,
		"auth_mode", cfg.Auth.Mode,
		"dev", cfg.IsDev,
		"audit", cfg.Audit.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
}

type closer interface{ Close() error }

func closeWithLog(ctx context.Context, logger *slog.Logger, name string, c closer) {
	if err := c.Close(); err != nil {
		logger.ErrorContext(ctx, "close "+name+" failed", "error", err)
	}
}
