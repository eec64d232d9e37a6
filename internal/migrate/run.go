// Package migrate applies the embedded SQL migrations for the audit database.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const createVersionsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Run applies every embedded migration not yet recorded in schema_migrations.
// Each file runs in its own transaction. It is safe to call multiple times.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := Apply(ctx, db)
	return err
}

// Apply is Run that also reports the versions it applied, in order.
func Apply(ctx context.Context, db *sql.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	files, err := Versions()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "migrations")
	var applied []string
	for _, version := range files {
		done, err := isApplied(ctx, db, version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		logger.InfoContext(ctx, "applying migration", "version", version)
		if err := applyOne(ctx, db, logger, version); err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}
	return applied, nil
}

// Versions lists the embedded migration versions in apply order.
func Versions() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			out = append(out, strings.TrimSuffix(e.Name(), ".sql"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func isApplied(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}

func applyOne(ctx context.Context, db *sql.DB, logger *slog.Logger, version string) error {
	body, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "failed to rollback migration", "err", rbErr, "version", version)
		}
	}()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec migration %s: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
