package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/linkstate"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
)

// defaultDiscordTokenLifetime applies when a completion omits expiresIn.
const defaultDiscordTokenLifetime int64 = 604800

var usernameStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Receiver error messages returned to webhook callers.
const (
	MsgMissingFields      = "Missing required fields"
	MsgInvalidIDFormat    = "Invalid ID format"
	MsgInvalidRobloxID    = "Invalid Roblox ID"
	MsgInvalidUsername    = "Invalid username"
	MsgVerificationFailed = "Verification failed"
	MsgMissingDiscordID   = "Missing discordId"
	MsgInvalidDiscordID   = "Invalid Discord ID format"
	MsgUnlinkFailed       = "Unlink failed"
	MsgNoRecord           = "No verification record found"
)

// LinkEvents publishes link lifecycle events.
type LinkEvents interface {
	PublishLinked(ctx context.Context, ev model.LinkedEvent) error
	PublishUnlinked(ctx context.Context, ev model.UnlinkedEvent) error
}

// LinkServiceOptions groups dependencies for LinkService.
type LinkServiceOptions struct {
	Links  core.IdentityLinkRepository // Required: link store
	Events LinkEvents                  // Required: event publisher
	Logger *slog.Logger                // Optional: structured logger
	// Secret is compared against X-Verify-Secret. An empty secret rejects every caller.
	Secret string
	Now    func() time.Time
}

// LinkService validates and persists completions posted by the relay.
type LinkService struct {
	links  core.IdentityLinkRepository
	events LinkEvents
	logger *slog.Logger
	secret []byte
	now    func() time.Time
}

// NewLinkService constructs a LinkService.
func NewLinkService(opts LinkServiceOptions) (*LinkService, error) {
	if opts.Links == nil {
		return nil, errors.New("IdentityLinkRepository is required")
	}
	if opts.Events == nil {
		return nil, errors.New("LinkEvents is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &LinkService{
		links:  opts.Links,
		events: opts.Events,
		logger: logger.With("component", "link_service"),
		secret: []byte(opts.Secret),
		now:    now,
	}, nil
}

// CheckSecret reports whether provided matches the shared secret in constant time.
func (s *LinkService) CheckSecret(provided string) bool {
	if len(s.secret) == 0 || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), s.secret) == 1
}

// SanitizeUsername drops every character outside [a-zA-Z0-9_].
func SanitizeUsername(name string) string {
	return usernameStrip.ReplaceAllString(name, "")
}

// CompleteVerification validates p, upserts the link and queues a linked
// event. Queue failures are logged and do not fail the call.
func (s *LinkService) CompleteVerification(
	ctx context.Context,
	p model.VerifyCompletePayload,
) (*model.VerifiedUserSummary, error) {
	discordID, guildID, robloxID := string(p.DiscordID), string(p.GuildID), string(p.RobloxID)
	if discordID == "" || guildID == "" || robloxID == "" {
		return nil, apperrors.Validation(MsgMissingFields)
	}
	if !linkstate.IsSnowflake(discordID) || !linkstate.IsSnowflake(guildID) {
		return nil, apperrors.Validation(MsgInvalidIDFormat)
	}
	if !linkstate.IsNumeric(robloxID) {
		return nil, apperrors.ValidationField("robloxId", MsgInvalidRobloxID)
	}
	username := SanitizeUsername(p.RobloxUsername)
	if username == "" {
		return nil, apperrors.ValidationField("robloxUsername", MsgInvalidUsername)
	}

	now := s.now()
	link, err := s.links.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID:      discordID,
		ExternalID:     robloxID,
		ExternalHandle: username,
		LinkedAt:       now,
		Tokens:         s.tokensFrom(p, now),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, MsgVerificationFailed)
	}

	s.logger.InfoContext(ctx, "verification saved",
		"discord_id", discordID, "guild_id", guildID, "roblox_id", robloxID,
		"has_token", p.DiscordAccessToken != "", "synthetic", p.IsSynthetic)

	if err := s.events.PublishLinked(ctx, model.LinkedEvent{
		DiscordID: discordID,
		GuildID:   guildID,
		RobloxID:  robloxID,
		Username:  username,
	}); err != nil {
		s.logger.ErrorContext(ctx, "queue linked event failed", "discord_id", discordID, "error", err)
	}

	summary := model.SummaryOf(link)
	return &summary, nil
}

// tokensFrom returns the tokens to persist, nil when the completion has no access token.
func (s *LinkService) tokensFrom(p model.VerifyCompletePayload, now time.Time) *model.LinkTokens {
	if p.DiscordAccessToken == "" {
		return nil
	}
	issued := p.DiscordTokenTimestamp
	if issued <= 0 {
		issued = now.UnixMilli()
	}
	lifetime := p.DiscordTokenExpiresIn
	if lifetime <= 0 {
		lifetime = defaultDiscordTokenLifetime
	}
	return &model.LinkTokens{
		AccessToken:  p.DiscordAccessToken,
		RefreshToken: p.DiscordRefreshToken,
		Expiry:       time.UnixMilli(issued + lifetime*1000).UTC(),
	}
}

// UnlinkResult is the outcome of an unlink request.
type UnlinkResult struct {
	Unlinked bool
	Removed  *model.VerifiedUserSummary
}

// Unlink removes the link for p.DiscordID and queues an unlinked event that
// fans out to every configured guild.
func (s *LinkService) Unlink(ctx context.Context, p model.UnlinkPayload) (*UnlinkResult, error) {
	discordID := string(p.DiscordID)
	if discordID == "" {
		return nil, apperrors.ValidationField("discordId", MsgMissingDiscordID)
	}
	if !linkstate.IsSnowflake(discordID) {
		return nil, apperrors.ValidationField("discordId", MsgInvalidDiscordID)
	}

	removed, err := s.links.DeleteBySubject(ctx, discordID)
	if apperrors.IsNotFound(err) {
		s.logger.InfoContext(ctx, "unlink requested without record", "discord_id", discordID)
		return &UnlinkResult{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, MsgUnlinkFailed)
	}

	s.logger.InfoContext(ctx, "verification removed", "discord_id", discordID, "roblox_id", removed.ExternalID)
	if err := s.events.PublishUnlinked(ctx, model.UnlinkedEvent{DiscordID: discordID}); err != nil {
		s.logger.ErrorContext(ctx, "queue unlinked event failed", "discord_id", discordID, "error", err)
	}

	summary := model.SummaryOf(removed)
	return &UnlinkResult{Unlinked: true, Removed: &summary}, nil
}

// Reapply queues a linked event for an existing link in guildID, so the
// consequence runs again without a new OAuth flow.
func (s *LinkService) Reapply(ctx context.Context, discordID, guildID string) (*model.VerifiedUserSummary, error) {
	if discordID == "" || guildID == "" {
		return nil, apperrors.Validation(MsgMissingFields)
	}
	if !linkstate.IsSnowflake(discordID) || !linkstate.IsSnowflake(guildID) {
		return nil, apperrors.Validation(MsgInvalidIDFormat)
	}

	link, err := s.links.GetBySubject(ctx, discordID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NotFound(MsgNoRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if err := s.events.PublishLinked(ctx, model.LinkedEvent{
		DiscordID: link.SubjectID,
		GuildID:   guildID,
		RobloxID:  link.ExternalID,
		Username:  link.ExternalHandle,
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Reapply failed")
	}
	summary := model.SummaryOf(link)
	return &summary, nil
}
