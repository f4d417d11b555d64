package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trizly/lumi-link/config"
	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/observability/metrics"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Repo    core.ReaperRepository // Required: reaper repository
	Config  config.ReaperConfig   // Required: reaper configuration
	Logger  *slog.Logger          // Optional: structured logger
	Metrics *metrics.Metrics      // Optional: deleted job counters
}

// ReaperService deletes finished link events past their retention.
type ReaperService struct {
	repo    core.ReaperRepository
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ReaperRepository is required")
	}
	if opts.Config.Interval <= 0 || opts.Config.BatchSize <= 0 {
		return nil, errors.New("reaper interval and batch size must be positive")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reaper_service")
	logger.Debug("ReaperService initialized",
		"interval", opts.Config.Interval,
		"completed_max_age", opts.Config.CompletedMaxAge,
		"failed_max_age", opts.Config.FailedMaxAge,
	)

	return &ReaperService{
		repo:    opts.Repo,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run performs a cleanup after a jittered delay and then once per interval
// until ctx is cancelled. Cancellation is a clean shutdown and returns nil.
func (s *ReaperService) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting reaper service", "interval", s.config.Interval)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && !isContextCancellation(err) {
			s.logger.ErrorContext(ctx, "reaper cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "reaper service stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// waitWithJitter sleeps a random delay up to 10% of the interval.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

// RunOnce deletes old completed then old failed jobs. Both sweeps run even
// when the first fails; the errors are joined.
func (s *ReaperService) RunOnce(ctx context.Context) error {
	var errs []error
	sweeps := []struct {
		status model.JobStatus
		maxAge time.Duration
	}{
		{model.JobStatusCompleted, s.config.CompletedMaxAge},
		{model.JobStatusFailed, s.config.FailedMaxAge},
	}
	for _, sw := range sweeps {
		if sw.maxAge <= 0 {
			continue
		}
		n, err := s.deleteOld(ctx, sw.status, sw.maxAge)
		s.metrics.AddReaped(string(sw.status), n)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete old %s jobs: %w", sw.status, err))
		}
	}
	return errors.Join(errs...)
}

// deleteOld loops batches until a batch deletes nothing.
func (s *ReaperService) deleteOld(ctx context.Context, status model.JobStatus, maxAge time.Duration) (int64, error) {
	var total int64
	for {
		n, err := s.repo.DeleteOldJobs(ctx, core.DeleteOldJobsParams{
			Status:    status,
			MaxAge:    maxAge,
			BatchSize: s.config.BatchSize,
		})
		if err != nil {
			return total, err
		}
		total += n
		if n < int64(s.config.BatchSize) {
			break
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
	if total > 0 {
		s.logger.InfoContext(ctx, "deleted old jobs", "status", status, "count", total, "max_age", maxAge)
	}
	return total, nil
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
