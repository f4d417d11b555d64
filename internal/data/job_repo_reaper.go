package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/data/pgxutil"
	"github.com/trizly/lumi-link/internal/domain/model"
)

// Advisory lock namespace for retention sweeps, one minor key per status.
const advisoryLockReaperMajor = 1000

// DeleteOldJobs deletes up to BatchSize jobs in Status that finished more than
// MaxAge ago. Concurrent callers skip instead of waiting on the lock.
func (r *JobRepo) DeleteOldJobs(ctx context.Context, params core.DeleteOldJobsParams) (int64, error) {
	if params.Status != model.JobStatusCompleted && params.Status != model.JobStatusFailed {
		return 0, fmt.Errorf("only finished jobs can be deleted, got status %q", params.Status)
	}
	if params.BatchSize <= 0 || params.MaxAge <= 0 {
		return 0, fmt.Errorf("batch size and max age must be positive")
	}

	minor := 1
	if params.Status == model.JobStatusFailed {
		minor = 2
	}

	var deleted int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1, $2)",
				advisoryLockReaperMajor, minor).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
			res, err := tx.ExecContext(ctx, `
				DELETE FROM jobs
				WHERE id IN (
					SELECT id FROM jobs
					WHERE status = $1
					  AND COALESCE(completed_at, updated_at) < $2
					ORDER BY COALESCE(completed_at, updated_at)
					LIMIT $3
				)
			`, params.Status, cutoff, params.BatchSize)
			if err != nil {
				return fmt.Errorf("delete old jobs: %w", err)
			}
			deleted, err = res.RowsAffected()
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
