package data

import (
	"database/sql"
	"log/slog"
	"time"
)

// RepoConfig holds configuration options for the job repository.
type RepoConfig struct {
	// RetryDelay is how long a failed job waits before it is eligible again.
	RetryDelay time.Duration
	// DefaultMaxRetries applies when a request leaves MaxRetries at zero.
	DefaultMaxRetries int
	Logger            *slog.Logger
	TimeProvider      TimeProvider
}

// JobRepo is the Postgres-backed link event queue.
type JobRepo struct {
	DB           *sql.DB
	cfg          RepoConfig
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JobRepo{
		DB:           db,
		cfg:          cfg,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

const jobColumns = `
  id,
  type,
  status,
  payload,
  dedupe_key,
  scheduled_at,
  started_at,
  completed_at,
  retry_count,
  max_retries,
  last_error,
  lease_expires_at,
  created_at,
  updated_at
`

func notifyChannel(jobType string) string {
	return "job_added_" + jobType
}
