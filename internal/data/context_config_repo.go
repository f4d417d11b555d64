package data

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/trizly/lumi-link/internal/data/pgxutil"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
)

const contextConfigColumns = `
  context_id,
  verified_role_id,
  unverified_role_id,
  use_unverified_role,
  verified_role_enabled,
  auto_verify_on_join,
  name_sync_enabled,
  name_sync_format,
  dm_failure_fallback_channel,
  created_at,
  updated_at
`

// ContextConfigRepo stores per-guild verification policy.
type ContextConfigRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContextConfigRepo creates a ContextConfigRepo. A nil tp uses the system clock.
func NewContextConfigRepo(db *sql.DB, tp TimeProvider) *ContextConfigRepo {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &ContextConfigRepo{DB: db, timeProvider: tp}
}

// Get returns the stored policy for a guild or a NotFound error.
func (r *ContextConfigRepo) Get(ctx context.Context, contextID string) (*model.ContextConfig, error) {
	var cfg *model.ContextConfig
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+contextConfigColumns+` FROM context_configs WHERE context_id = $1`, contextID)
		if err != nil {
			return err
		}
		cfg, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.ContextConfig])
		return err
	})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		if apperrors.IsNotFound(mapped) {
			return nil, apperrors.NotFound("context config not found")
		}
		return nil, mapped
	}
	return cfg, nil
}

// Upsert stores cfg, replacing every policy field of an existing row.
func (r *ContextConfigRepo) Upsert(ctx context.Context, cfg *model.ContextConfig) error {
	if cfg == nil || strings.TrimSpace(cfg.ContextID) == "" {
		return apperrors.ValidationField("guildId", ErrContextRequired.Error())
	}
	now := r.timeProvider.Now().UTC()
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO context_configs (
			context_id, verified_role_id, unverified_role_id, use_unverified_role,
			verified_role_enabled, auto_verify_on_join, name_sync_enabled,
			name_sync_format, dm_failure_fallback_channel, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (context_id) DO UPDATE SET
			verified_role_id = EXCLUDED.verified_role_id,
			unverified_role_id = EXCLUDED.unverified_role_id,
			use_unverified_role = EXCLUDED.use_unverified_role,
			verified_role_enabled = EXCLUDED.verified_role_enabled,
			auto_verify_on_join = EXCLUDED.auto_verify_on_join,
			name_sync_enabled = EXCLUDED.name_sync_enabled,
			name_sync_format = EXCLUDED.name_sync_format,
			dm_failure_fallback_channel = EXCLUDED.dm_failure_fallback_channel,
			updated_at = EXCLUDED.updated_at
	`,
		cfg.ContextID, cfg.VerifiedRoleID, cfg.UnverifiedRoleID, cfg.UseUnverifiedRole,
		cfg.VerifiedRoleEnabled, cfg.AutoVerifyOnJoin, cfg.NameSyncEnabled,
		string(cfg.Format()), cfg.DMFailureFallbackChannel, now,
	)
	return apperrors.MapDBError(err)
}

// List returns every stored guild policy ordered by guild id.
func (r *ContextConfigRepo) List(ctx context.Context) ([]*model.ContextConfig, error) {
	var out []*model.ContextConfig
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+contextConfigColumns+` FROM context_configs ORDER BY context_id`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.ContextConfig])
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}
