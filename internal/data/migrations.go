package data

import (
	"context"
	"database/sql"

	"github.com/trizly/lumi-link/internal/migrate"
)

// RunMigrations brings the schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate.Run(ctx, db)
}
