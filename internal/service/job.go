package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trizly/lumi-link/internal/core"
	domainjob "github.com/trizly/lumi-link/internal/domain/job"
	"github.com/trizly/lumi-link/internal/domain/model"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo            core.JobRepository        // Required: job repository
	DefaultLease    time.Duration             // Required: default lease duration for jobs
	Logger          *slog.Logger              // Optional: structured logger
	Notifier        domainjob.Notifier        // Optional: custom job availability notifier
	NotifierOptions domainjob.NotifierOptions // Optional: configure default notifier behaviour
}

// JobService wraps the event queue with lease handling and wake-up subscriptions.
type JobService struct {
	repo         core.JobRepository
	defaultLease time.Duration
	notifier     domainjob.Notifier
	logger       *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.DefaultLease <= 0 {
		return nil, errors.New("DefaultLease must be positive")
	}

	notifier := opts.Notifier
	if notifier == nil {
		options := opts.NotifierOptions
		if options.Waiter == nil {
			options.Waiter = opts.Repo
		}
		var err error
		notifier, err = domainjob.NewNotifier(options)
		if err != nil {
			return nil, fmt.Errorf("create job notifier: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		repo:         opts.Repo,
		defaultLease: opts.DefaultLease,
		notifier:     notifier,
		logger:       logger.With("component", "job_service"),
	}, nil
}

// MustNewJobService constructs a new JobService and panics on error.
func MustNewJobService(opts JobServiceOptions) *JobService {
	svc, err := NewJobService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create JobService: %v", err))
	}
	return svc
}

// leaseSeconds rounds d up to whole seconds, falling back to the default
// lease and never going below one second.
func (s *JobService) leaseSeconds(d time.Duration) int {
	if d <= 0 {
		d = s.defaultLease
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// ReserveNext reserves the next available job of the given type.
// model.ErrNoJobsAvailable is returned wrapped when the queue is empty.
func (s *JobService) ReserveNext(ctx context.Context, jobType model.JobType, lease time.Duration) (*model.Job, error) {
	secs := s.leaseSeconds(lease)
	job, err := s.repo.ReserveNext(ctx, jobType, secs)
	if err != nil {
		return nil, fmt.Errorf("reserve next job: %w", err)
	}
	s.logger.DebugContext(ctx, "job reserved", "id", job.ID, "type", jobType, "lease_seconds", secs)
	return job, nil
}

// Subscribe returns a wake-up channel for jobType and its unsubscribe func.
func (s *JobService) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	return s.notifier.Subscribe(jobType)
}

// Heartbeat extends the lease of a running job.
func (s *JobService) Heartbeat(ctx context.Context, id string, extend time.Duration) (bool, error) {
	updated, err := s.repo.Heartbeat(ctx, id, s.leaseSeconds(extend))
	if err != nil {
		return false, fmt.Errorf("heartbeat job %s: %w", id, err)
	}
	return updated, nil
}

// Complete marks a job completed.
func (s *JobService) Complete(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Complete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("complete job %s: %w", id, err)
	}
	return ok, nil
}

// Fail records a failed attempt; the repository reschedules or gives up.
func (s *JobService) Fail(ctx context.Context, id, errMsg string) (bool, error) {
	ok, err := s.repo.Fail(ctx, id, errMsg)
	if err != nil {
		return false, fmt.Errorf("fail job %s: %w", id, err)
	}
	return ok, nil
}

// Stats returns queue counts for jobType.
func (s *JobService) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	stats, err := s.repo.Stats(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

// StopAllListeners stops every notification listener.
func (s *JobService) StopAllListeners() {
	s.notifier.StopAll()
}
