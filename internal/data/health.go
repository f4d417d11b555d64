package data

import (
	"context"
	"database/sql"
	"errors"
)

// DBHealth reports whether the Postgres pool can reach the server.
type DBHealth struct {
	DB *sql.DB
}

// NewDBHealth wraps db for health probes.
func NewDBHealth(db *sql.DB) *DBHealth {
	return &DBHealth{DB: db}
}

// Ping checks connectivity.
func (h *DBHealth) Ping(ctx context.Context) error {
	if h == nil || h.DB == nil {
		return errors.New("database not configured")
	}
	return h.DB.PingContext(ctx)
}
