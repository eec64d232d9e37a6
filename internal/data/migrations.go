package data

import (
	"context"
	"database/sql"

	"github.com/ternsecure/tern-admin/internal/migrate"
)

// RunMigrations applies the audit schema, returning the versions applied by this call.
func RunMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	return migrate.Apply(ctx, db)
}
