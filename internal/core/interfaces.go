// Package core defines the repository contracts between the service layer and
// the data layer (ports in hexagonal architecture).
package core

import (
	"context"
	"time"

	"github.com/trizly/lumi-link/internal/domain/model"
)

// IdentityLinkRepository persists subject to external identity links.
// Lookups return an errors.NotFound AppError when no row matches.
type IdentityLinkRepository interface {
	Upsert(ctx context.Context, req model.UpsertIdentityLinkRequest) (*model.IdentityLink, error)
	GetBySubject(ctx context.Context, subjectID string) (*model.IdentityLink, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.IdentityLink, error)
	// DeleteBySubject removes the link and returns the removed row.
	DeleteBySubject(ctx context.Context, subjectID string) (*model.IdentityLink, error)
	UpdateTokens(ctx context.Context, subjectID string, tokens model.LinkTokens) (bool, error)
}

// ContextConfigRepository reads per-guild policy. Get returns NotFound when
// the guild has no stored row; callers fall back to model.DefaultContextConfig.
type ContextConfigRepository interface {
	Get(ctx context.Context, contextID string) (*model.ContextConfig, error)
	Upsert(ctx context.Context, cfg *model.ContextConfig) error
	List(ctx context.Context) ([]*model.ContextConfig, error)
}

// JobRepository is the durable link event queue.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	ReserveNext(ctx context.Context, jobType model.JobType, leaseSeconds int) (*model.Job, error)
	WaitForNotification(ctx context.Context, jobType model.JobType) error
	Heartbeat(ctx context.Context, jobID string, leaseSeconds int) (bool, error)
	Complete(ctx context.Context, id string) (bool, error)
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error)
}

// DeleteOldJobsParams selects finished jobs for deletion.
type DeleteOldJobsParams struct {
	Status    model.JobStatus
	MaxAge    time.Duration
	BatchSize int
}

// ReaperRepository removes finished jobs past their retention.
type ReaperRepository interface {
	DeleteOldJobs(ctx context.Context, params DeleteOldJobsParams) (int64, error)
}

// HealthChecker reports backing store health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
