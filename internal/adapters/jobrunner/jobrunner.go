// Package jobrunner consumes queued link events and applies their guild consequences.
package jobrunner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trizly/lumi-link/config"
	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/data"
	"github.com/trizly/lumi-link/internal/domain/consequence"
	"github.com/trizly/lumi-link/internal/domain/job"
	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/service"
)

// HandlerFunc processes a job and returns error to indicate failure (which will be retried per policy).
type HandlerFunc func(ctx context.Context, job *model.Job) error

// Applier applies the guild consequences of each event type.
type Applier interface {
	ApplyLinked(ctx context.Context, ev model.LinkedEvent) (*consequence.Summary, error)
	ApplyUnlinked(ctx context.Context, ev model.UnlinkedEvent) ([]*consequence.Summary, error)
	ApplyMemberJoined(ctx context.Context, ev model.MemberJoinedEvent) (*consequence.Summary, error)
}

// RunnerOptions configures the job runner adapter.
type RunnerOptions struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Applier Applier // Required
	Config  config.LinkRunnerConfig

	// Types limits which event types are consumed; defaults to all of them.
	Types []model.JobType

	// Optional dependency injections (useful for tests/decoupling)
	JobsRepo core.JobRepository
	Metrics  *metrics.Metrics
}

// Runner pulls jobs for each event type and executes them using registered handlers.
type Runner struct {
	jobs     *service.JobService
	applier  Applier
	logger   *slog.Logger
	lease    time.Duration
	types    []model.JobType
	workers  int
	handlers map[model.JobType]HandlerFunc
	metrics  *metrics.Metrics
}

// NewRunner wires the queue and constructs a runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.DB == nil && opts.JobsRepo == nil {
		return nil, errors.New("either DB or JobsRepo must be provided")
	}
	if opts.Applier == nil {
		return nil, errors.New("applier is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	lease := cfg.JobLease
	if lease <= 0 {
		lease = 30 * time.Second
	}
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 1
	}
	types := opts.Types
	if len(types) == 0 {
		types = model.JobTypes()
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, fmt.Errorf("invalid job type %q", t)
		}
	}

	repo := opts.JobsRepo
	if repo == nil {
		repo = data.NewJobRepo(opts.DB, data.RepoConfig{
			RetryDelay:        cfg.RetryDelay,
			DefaultMaxRetries: cfg.MaxRetries,
			Logger:            logger,
		})
	}
	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo:            repo,
		DefaultLease:    lease,
		Logger:          logger,
		NotifierOptions: job.NotifierOptions{PollInterval: cfg.PollInterval},
	})
	if err != nil {
		return nil, fmt.Errorf("create job service: %w", err)
	}

	r := &Runner{
		jobs:     jobs,
		applier:  opts.Applier,
		logger:   logger.With("component", "link_runner"),
		lease:    lease,
		types:    types,
		workers:  workers,
		handlers: make(map[model.JobType]HandlerFunc),
		metrics:  opts.Metrics,
	}
	r.handlers[model.JobTypeLinked] = r.handleLinked
	r.handlers[model.JobTypeUnlinked] = r.handleUnlinked
	r.handlers[model.JobTypeMemberJoined] = r.handleMemberJoined
	return r, nil
}

// Run starts worker goroutines for every type and processes jobs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting link runner", "types", r.types, "workers", r.workers, "lease", r.lease)

	// Derive a cancellable context that we can signal on first fatal error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer r.jobs.StopAllListeners()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	for _, jt := range r.types {
		unsub, ch := r.jobs.Subscribe(jt)
		defer unsub()

		for range r.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.workerLoop(ctx, jt, ch); err != nil {
					// first error wins, cancels all workers
					select {
					case errCh <- err:
						cancel()
					default:
					}
				}
			}()
		}
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) workerLoop(ctx context.Context, jt model.JobType, notify <-chan struct{}) error {
	for ctx.Err() == nil {
		j, err := r.jobs.ReserveNext(ctx, jt, r.lease)
		switch {
		case err == nil:
			if j != nil {
				r.processJob(ctx, j)
			}
		case errors.Is(err, model.ErrNoJobsAvailable):
			if !waitForNotify(ctx, notify) {
				return nil
			}
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("reserve next %s: %w", jt, err)
		}
	}
	return nil
}

func waitForNotify(ctx context.Context, notify <-chan struct{}) bool {
	select {
	case <-ctx.Done():
		return false
	case <-notify:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, j *model.Job) {
	start := time.Now()
	emit := func(transition, result string, err error) {
		r.metrics.ObserveJob(metrics.JobMetric{
			JobType:    string(j.Type),
			Transition: transition,
			Result:     result,
			Duration:   time.Since(start),
			Err:        err,
		})
	}

	h, ok := r.handlers[j.Type]
	if !ok {
		err := fmt.Errorf("no handler for job type %s", j.Type)
		r.fail(ctx, j, err)
		emit("failed", metrics.ResultError, err)
		return
	}

	stop := r.keepLeased(ctx, j.ID)
	err := h(ctx, j)
	stop()

	if err != nil {
		r.fail(ctx, j, err)
		emit("failed", metrics.ResultError, err)
		return
	}
	if completed, cerr := r.jobs.Complete(ctx, j.ID); cerr != nil {
		r.logger.ErrorContext(ctx, "complete job error", "job_id", j.ID, "error", cerr)
		emit("completed", metrics.ResultError, cerr)
	} else {
		result := metrics.ResultNoop
		if completed {
			result = metrics.ResultSuccess
		}
		emit("completed", result, nil)
	}
}

func (r *Runner) fail(ctx context.Context, j *model.Job, cause error) {
	r.logger.WarnContext(ctx, "link event failed",
		"job_id", j.ID, "type", j.Type, "retry_count", j.RetryCount, "error", cause)
	if _, err := r.jobs.Fail(ctx, j.ID, cause.Error()); err != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", j.ID, "error", err, "original_error", cause)
	}
}

// keepLeased extends the lease at half its length until the returned stop
// func is called.
func (r *Runner) keepLeased(ctx context.Context, id string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(r.lease / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := r.jobs.Heartbeat(ctx, id, r.lease)
				if err != nil && ctx.Err() == nil {
					r.logger.WarnContext(ctx, "job heartbeat failed", "job_id", id, "error", err)
				} else if err == nil && !ok {
					r.logger.WarnContext(ctx, "job lease lost", "job_id", id)
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func decodePayload[T any](j *model.Job) (T, error) {
	var ev T
	if err := json.Unmarshal(j.Payload, &ev); err != nil {
		return ev, fmt.Errorf("decode %s payload: %w", j.Type, err)
	}
	return ev, nil
}

func (r *Runner) handleLinked(ctx context.Context, j *model.Job) error {
	ev, err := decodePayload[model.LinkedEvent](j)
	if err != nil {
		return err
	}
	_, err = r.applier.ApplyLinked(ctx, ev)
	return err
}

func (r *Runner) handleUnlinked(ctx context.Context, j *model.Job) error {
	ev, err := decodePayload[model.UnlinkedEvent](j)
	if err != nil {
		return err
	}
	_, err = r.applier.ApplyUnlinked(ctx, ev)
	return err
}

func (r *Runner) handleMemberJoined(ctx context.Context, j *model.Job) error {
	ev, err := decodePayload[model.MemberJoinedEvent](j)
	if err != nil {
		return err
	}
	_, err = r.applier.ApplyMemberJoined(ctx, ev)
	return err
}
