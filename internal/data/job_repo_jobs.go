package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/trizly/lumi-link/internal/data/pgxutil"
	"github.com/trizly/lumi-link/internal/domain/model"
)

const (
	defaultRetryDelay = 30 * time.Second
	defaultMaxRetries = 5
)

func (r *JobRepo) retryDelay() time.Duration {
	if r.cfg.RetryDelay > 0 {
		return r.cfg.RetryDelay
	}
	return defaultRetryDelay
}

func (r *JobRepo) maxRetries(req *model.CreateJobRequest) int {
	if req.MaxRetries > 0 {
		return req.MaxRetries
	}
	if r.cfg.DefaultMaxRetries > 0 {
		return r.cfg.DefaultMaxRetries
	}
	return defaultMaxRetries
}

const insertJobSQL = `
  INSERT INTO jobs (id, type, status, payload, dedupe_key, scheduled_at, max_retries, created_at, updated_at)
  VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $7)
  ON CONFLICT (type, dedupe_key)
    WHERE dedupe_key IS NOT NULL AND status IN ('pending', 'running')
    DO NOTHING
  RETURNING ` + jobColumns

const activeByDedupeSQL = `
  SELECT ` + jobColumns + `
  FROM jobs
  WHERE type = $1 AND dedupe_key = $2 AND status IN ('pending', 'running')
  LIMIT 1`

// SQL used by ReserveNext to atomically reserve the next job.
const reserveNextUpdateSQL = `
  WITH cte AS (
    SELECT id FROM jobs
    WHERE type = $1 AND status = 'pending' AND scheduled_at <= $2
    ORDER BY scheduled_at ASC, created_at ASC
    LIMIT 1
    FOR UPDATE SKIP LOCKED
  )
  UPDATE jobs j
  SET
    status = 'running',
    started_at = COALESCE(j.started_at, $2),
    lease_expires_at = $3,
    updated_at = $2
  FROM cte
  WHERE j.id = cte.id
  RETURNING j.id, j.type, j.status, j.payload, j.dedupe_key, j.scheduled_at, j.started_at, j.completed_at,
    j.retry_count, j.max_retries, j.last_error, j.lease_expires_at, j.created_at, j.updated_at`

// Create enqueues a job and notifies listeners of its type. When DedupeKey
// matches a pending or running job of the same type, that job is returned and
// nothing is inserted.
func (r *JobRepo) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, errors.New("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	scheduledAt := now
	if req.ScheduledAt != nil {
		scheduledAt = req.ScheduledAt.UTC()
	}
	var dedupe *string
	if req.DedupeKey != "" {
		dedupe = &req.DedupeKey
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, insertJobSQL,
				uuid.NewString(), req.Type, []byte(req.Payload), dedupe, scheduledAt, r.maxRetries(req), now)
			if err != nil {
				return fmt.Errorf("insert job: %w", err)
			}
			inserted, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
			if errors.Is(err, pgx.ErrNoRows) {
				existing, lookupErr := r.activeByDedupe(ctx, tx, req.Type, req.DedupeKey)
				if lookupErr != nil {
					return lookupErr
				}
				job = existing
				return nil
			}
			if err != nil {
				return fmt.Errorf("collect job: %w", err)
			}
			job = inserted

			if _, err := tx.Exec(ctx, `SELECT pg_notify($1::text, $2::text)`,
				notifyChannel(string(req.Type)), job.ID); err != nil {
				return fmt.Errorf("send job notification: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepo) activeByDedupe(ctx context.Context, tx pgx.Tx, jobType model.JobType, key string) (*model.Job, error) {
	rows, err := tx.Query(ctx, activeByDedupeSQL, jobType, key)
	if err != nil {
		return nil, fmt.Errorf("lookup deduplicated job: %w", err)
	}
	job, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
	if err != nil {
		return nil, fmt.Errorf("collect deduplicated job: %w", err)
	}
	return job, nil
}

// Advisory lock namespace for requeueExpired to avoid cross-job-type contention.
const advisoryLockRequeueMajor int64 = 1001

func advisoryLockRequeueMinor(jobType model.JobType) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(jobType))
	return int64(h.Sum32() & math.MaxInt32)
}

// requeueExpired returns running jobs whose lease lapsed to pending.
func (r *JobRepo) requeueExpired(ctx context.Context, jobType model.JobType) (int64, error) {
	var requeued int64
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var locked bool
			if err := tx.QueryRowContext(ctx, "SELECT pg_try_advisory_xact_lock($1::integer, $2::integer)",
				advisoryLockRequeueMajor, advisoryLockRequeueMinor(jobType)).Scan(&locked); err != nil {
				return fmt.Errorf("acquire advisory lock: %w", err)
			}
			if !locked {
				return nil
			}

			res, err := tx.ExecContext(ctx, `
          UPDATE jobs
          SET status = 'pending', lease_expires_at = NULL
          WHERE type = $1 AND status = 'running'
            AND lease_expires_at IS NOT NULL
            AND lease_expires_at < $2
        `, jobType, r.timeProvider.Now().UTC())
			if err != nil {
				return fmt.Errorf("requeue expired: %w", err)
			}
			requeued, err = res.RowsAffected()
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		r.logger.WarnContext(ctx, "requeued jobs with expired lease", "type", jobType, "count", requeued)
	}
	return requeued, nil
}

// ReserveNext leases the oldest due job of jobType. Returns
// model.ErrNoJobsAvailable when the queue is empty.
func (r *JobRepo) ReserveNext(ctx context.Context, jobType model.JobType, leaseSeconds int) (*model.Job, error) {
	if !jobType.Valid() {
		return nil, fmt.Errorf("invalid job type: %s", jobType)
	}
	if _, err := r.requeueExpired(ctx, jobType); err != nil {
		return nil, fmt.Errorf("requeue expired jobs: %w", err)
	}

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			now := r.timeProvider.Now().UTC()
			lease := now.Add(time.Duration(leaseSeconds) * time.Second)

			rows, err := tx.Query(ctx, reserveNextUpdateSQL, jobType, now, lease)
			if err != nil {
				return fmt.Errorf("reserve job: %w", err)
			}
			j, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNoJobsAvailable
			}
			if err != nil {
				return fmt.Errorf("reserve job: %w", err)
			}
			job = j
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Heartbeat extends the lease on a running job. Returns false when the job is
// no longer running.
func (r *JobRepo) Heartbeat(ctx context.Context, jobID string, leaseSeconds int) (bool, error) {
	if leaseSeconds <= 0 {
		return false, errors.New("leaseSeconds must be positive")
	}
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET lease_expires_at = $2,
		    updated_at = $3
		WHERE id = $1 AND status = 'running'
	`, jobID, now.Add(time.Duration(leaseSeconds)*time.Second), now)
	if err != nil {
		return false, fmt.Errorf("heartbeat job: %w", err)
	}
	return affected(res)
}

// Complete marks a running job completed.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	res, err := r.DB.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'completed',
		    completed_at = $2,
		    updated_at = $2,
		    lease_expires_at = NULL,
		    last_error = NULL
		WHERE id = $1 AND status = 'running'
	`, id, now)
	if err != nil {
		return false, fmt.Errorf("complete job: %w", err)
	}
	return affected(res)
}

// Fail records errMsg against a running job. The job is rescheduled after the
// retry delay until max_retries is reached, then marked failed.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	now := r.timeProvider.Now().UTC()
	retryAt := now.Add(r.retryDelay())

	var status string
	err := r.DB.QueryRowContext(ctx, `
      UPDATE jobs
      SET
        last_error = $2,
        retry_count = retry_count + 1,
        status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
        completed_at = CASE WHEN retry_count + 1 >= max_retries THEN $3::timestamptz ELSE NULL END,
        lease_expires_at = NULL,
        scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at ELSE $4::timestamptz END,
        updated_at = $3
      WHERE id = $1 AND status = 'running'
      RETURNING status
    `, id, errMsg, now, retryAt).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fail job: %w", err)
	}
	if status == string(model.JobStatusFailed) {
		r.logger.WarnContext(ctx, "job exhausted retries", "job_id", id, "error", errMsg)
	}
	return true, nil
}

// GetByID returns a job or ErrJobNotFound.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		job, err = pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Stats counts jobs of jobType by status.
func (r *JobRepo) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	var s model.JobStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'pending')   AS pending,
    count(*) FILTER (WHERE status = 'running')   AS running,
    count(*) FILTER (WHERE status = 'completed') AS completed,
    count(*) FILTER (WHERE status = 'failed')    AS failed
  FROM jobs
  WHERE type = $1
  `, jobType).Scan(&s.Pending, &s.Running, &s.Completed, &s.Failed)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &s, nil
}

// WaitForNotification blocks until a job of jobType is enqueued or ctx ends.
func (r *JobRepo) WaitForNotification(ctx context.Context, jobType model.JobType) error {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() { _ = conn.Close() }()

	channel := notifyChannel(string(jobType))
	quoted := pgx.Identifier{channel}.Sanitize()

	if _, err := conn.ExecContext(ctx, "LISTEN "+quoted); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.WithoutCancel(ctx), "UNLISTEN "+quoted)
	}()

	return conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return errors.New("unexpected driver connection type; expected *stdlib.Conn")
		}
		_, err := sc.Conn().WaitForNotification(ctx)
		return err
	})
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
