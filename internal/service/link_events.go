package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/model"
)

// LinkEventPublisherOptions groups dependencies for LinkEventPublisher.
type LinkEventPublisherOptions struct {
	Jobs       core.JobRepository // Required: event queue
	MaxRetries int                // Optional: per-event retry budget, repository default when zero
	Logger     *slog.Logger       // Optional: structured logger
}

// LinkEventPublisher enqueues link events for the link runner.
type LinkEventPublisher struct {
	jobs       core.JobRepository
	maxRetries int
	logger     *slog.Logger
}

// NewLinkEventPublisher constructs a LinkEventPublisher.
func NewLinkEventPublisher(opts LinkEventPublisherOptions) (*LinkEventPublisher, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkEventPublisher{
		jobs:       opts.Jobs,
		maxRetries: opts.MaxRetries,
		logger:     logger.With("component", "link_events"),
	}, nil
}

// PublishLinked enqueues a linked event.
func (p *LinkEventPublisher) PublishLinked(ctx context.Context, ev model.LinkedEvent) error {
	return p.publish(ctx, model.JobTypeLinked, ev, "")
}

// PublishUnlinked enqueues an unlinked event.
func (p *LinkEventPublisher) PublishUnlinked(ctx context.Context, ev model.UnlinkedEvent) error {
	return p.publish(ctx, model.JobTypeUnlinked, ev, "")
}

// MemberJoined enqueues a member_joined event. Duplicate joins for the same
// member and guild collapse while one is still queued.
func (p *LinkEventPublisher) MemberJoined(ctx context.Context, ev model.MemberJoinedEvent) error {
	return p.publish(ctx, model.JobTypeMemberJoined, ev, ev.GuildID+":"+ev.DiscordID)
}

func (p *LinkEventPublisher) publish(ctx context.Context, jt model.JobType, ev any, dedupe string) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", jt, err)
	}
	job, err := p.jobs.Create(ctx, &model.CreateJobRequest{
		Type:       jt,
		Payload:    payload,
		DedupeKey:  dedupe,
		MaxRetries: p.maxRetries,
	})
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", jt, err)
	}
	p.logger.DebugContext(ctx, "link event queued", "type", jt, "job_id", job.ID)
	return nil
}
