package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/consequence"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/observability/metrics"
	"github.com/trizly/lumi-link/internal/ports"
)

// Event names used in summaries and metrics.
const (
	EventLinked       = "linked"
	EventUnlinked     = "unlinked"
	EventMemberJoined = "member_joined"
)

// Notifier delivers the post-link verification notice.
type Notifier interface {
	Notify(ctx context.Context, notice VerificationNotice) (DeliveryTier, error)
}

// ConsequenceApplierOptions groups dependencies for ConsequenceApplier.
type ConsequenceApplierOptions struct {
	Configs   core.ContextConfigRepository // Required: per-guild policy
	Links     core.IdentityLinkRepository  // Required: link lookups on member join
	Guild     ports.GuildPlatform          // Required: role and nickname mutations
	Directory ports.RobloxDirectory        // Optional: display names for name sync
	Notifier  Notifier                     // Optional: post-link notice
	// VerifiedRoleFallback is used when a guild has no verified role stored.
	VerifiedRoleFallback string
	Logger               *slog.Logger
	Metrics              *metrics.Metrics
}

// ConsequenceApplier turns link events into role, nickname and notice
// changes in a guild. Every step is recorded in a consequence.Summary. Only a
// failed config load or verified-role assignment fails the event.
type ConsequenceApplier struct {
	configs      core.ContextConfigRepository
	links        core.IdentityLinkRepository
	guild        ports.GuildPlatform
	directory    ports.RobloxDirectory
	notifier     Notifier
	fallbackRole string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewConsequenceApplier constructs a ConsequenceApplier.
func NewConsequenceApplier(opts ConsequenceApplierOptions) (*ConsequenceApplier, error) {
	if opts.Configs == nil {
		return nil, errors.New("ContextConfigRepository is required")
	}
	if opts.Links == nil {
		return nil, errors.New("IdentityLinkRepository is required")
	}
	if opts.Guild == nil {
		return nil, errors.New("GuildPlatform is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsequenceApplier{
		configs:      opts.Configs,
		links:        opts.Links,
		guild:        opts.Guild,
		directory:    opts.Directory,
		notifier:     opts.Notifier,
		fallbackRole: opts.VerifiedRoleFallback,
		logger:       logger.With("component", "consequence_applier"),
		metrics:      opts.Metrics,
	}, nil
}

// MustNewConsequenceApplier is like NewConsequenceApplier but panics on error.
func MustNewConsequenceApplier(opts ConsequenceApplierOptions) *ConsequenceApplier {
	a, err := NewConsequenceApplier(opts)
	if err != nil {
		//nolint:forbidigo // constructor guard
		panic(err)
	}
	return a
}

// ApplyLinked grants the verified role, syncs the nickname, drops the
// unverified role and sends the verification notice.
func (a *ConsequenceApplier) ApplyLinked(ctx context.Context, ev model.LinkedEvent) (*consequence.Summary, error) {
	s := consequence.NewSummary(EventLinked, ev.DiscordID, ev.GuildID)
	defer a.finish(ctx, s)

	cfg, ok := a.loadConfig(ctx, s, ev.GuildID)
	if !ok {
		return s, s.Err()
	}
	if !cfg.VerifiedRoleEnabled {
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonRoleDisabled))
		return s, nil
	}
	roleID := cfg.VerifiedRole(a.fallbackRole)
	if roleID == "" {
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonNoRoleConfigured))
		return s, nil
	}

	member, ok := a.fetchMember(ctx, s, ev.GuildID, ev.DiscordID)
	if !ok {
		return s, nil
	}
	standing, canManage := a.privilegeCheck(ctx, s, ev.GuildID, roleID)

	// Redelivered events still notify when the role is already held.
	held := false
	switch {
	case member.HasRole(roleID):
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonAlreadyHeld))
		held = true
	case !canManage:
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonInsufficientPerms))
	default:
		if err := a.guild.AddRole(ctx, ev.GuildID, ev.DiscordID, roleID); err != nil {
			s.Add(consequence.Failed(consequence.StepAddVerified, roleFailureReason(err), err).Escalated())
			return s, s.Err()
		}
		s.Add(consequence.Applied(consequence.StepAddVerified, consequence.ReasonApplied).WithDetail(roleID))
		held = true
	}

	nameSync := a.syncName(ctx, s, cfg, standing, member, ev.RobloxID, ev.Username)
	a.removeUnverified(ctx, s, cfg, member)

	if !held {
		s.Add(consequence.Skipped(consequence.StepNotify, consequence.ReasonRoleNotAssigned))
		return s, nil
	}
	a.notify(ctx, s, VerificationNotice{
		SubjectID:         ev.DiscordID,
		GuildID:           ev.GuildID,
		GuildName:         a.guildName(ctx, ev.GuildID),
		RobloxID:          ev.RobloxID,
		RobloxUsername:    ev.Username,
		NicknameFailed:    nameSync.Reason == consequence.ReasonSetFailed,
		FallbackChannelID: cfg.DMFailureFallbackChannel,
	})
	return s, nil
}

// ApplyUnlinked removes the verified role and restores the unverified role.
// An event without a guild fans out to every configured guild.
func (a *ConsequenceApplier) ApplyUnlinked(ctx context.Context, ev model.UnlinkedEvent) ([]*consequence.Summary, error) {
	guilds := []string{ev.GuildID}
	if ev.GuildID == "" {
		cfgs, err := a.configs.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list guild configs: %w", err)
		}
		guilds = guilds[:0]
		for _, c := range cfgs {
			guilds = append(guilds, c.ContextID)
		}
	}

	summaries := make([]*consequence.Summary, 0, len(guilds))
	var errs []error
	for _, guildID := range guilds {
		s := a.unlinkGuild(ctx, ev.DiscordID, guildID)
		summaries = append(summaries, s)
		if err := s.Err(); err != nil {
			errs = append(errs, fmt.Errorf("guild %s: %w", guildID, err))
		}
	}
	return summaries, errors.Join(errs...)
}

func (a *ConsequenceApplier) unlinkGuild(ctx context.Context, discordID, guildID string) *consequence.Summary {
	s := consequence.NewSummary(EventUnlinked, discordID, guildID)
	defer a.finish(ctx, s)

	cfg, ok := a.loadConfig(ctx, s, guildID)
	if !ok {
		return s
	}
	member, ok := a.fetchMember(ctx, s, guildID, discordID)
	if !ok {
		return s
	}

	roleID := cfg.VerifiedRole(a.fallbackRole)
	switch {
	case roleID == "":
		s.Add(consequence.Skipped(consequence.StepRemoveVerified, consequence.ReasonNoRoleConfigured))
	case !member.HasRole(roleID):
		s.Add(consequence.Skipped(consequence.StepRemoveVerified, consequence.ReasonNotHeld))
	default:
		if _, canManage := a.privilegeCheck(ctx, s, guildID, roleID); !canManage {
			s.Add(consequence.Skipped(consequence.StepRemoveVerified, consequence.ReasonInsufficientPerms))
			break
		}
		if err := a.guild.RemoveRole(ctx, guildID, discordID, roleID); err != nil {
			s.Add(consequence.Failed(consequence.StepRemoveVerified, roleFailureReason(err), err))
		} else {
			s.Add(consequence.Applied(consequence.StepRemoveVerified, consequence.ReasonApplied).WithDetail(roleID))
		}
	}

	a.addUnverified(ctx, s, cfg, member)
	return s
}

// ApplyMemberJoined reconciles a joining member's roles with their link
// state. Unlinked members get the unverified role. Linked members are
// verified when the guild auto-verifies on join.
func (a *ConsequenceApplier) ApplyMemberJoined(ctx context.Context, ev model.MemberJoinedEvent) (*consequence.Summary, error) {
	s := consequence.NewSummary(EventMemberJoined, ev.DiscordID, ev.GuildID)
	defer a.finish(ctx, s)

	cfg, ok := a.loadConfig(ctx, s, ev.GuildID)
	if !ok {
		return s, s.Err()
	}

	link, err := a.links.GetBySubject(ctx, ev.DiscordID)
	if err != nil && !apperrors.IsNotFound(err) {
		return s, fmt.Errorf("load link: %w", err)
	}

	member, ok := a.fetchMember(ctx, s, ev.GuildID, ev.DiscordID)
	if !ok {
		return s, nil
	}
	roleID := cfg.VerifiedRole(a.fallbackRole)

	if link == nil {
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonNotLinked))
		a.addUnverified(ctx, s, cfg, member)
		if roleID != "" && member.HasRole(roleID) {
			a.removeRole(ctx, s, consequence.StepRemoveVerified, member, roleID)
		}
		return s, nil
	}

	switch {
	case !cfg.AutoVerifyOnJoin:
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonAutoVerifyDisabled))
	case !cfg.VerifiedRoleEnabled:
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonRoleDisabled))
	case roleID == "":
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonNoRoleConfigured))
	case member.HasRole(roleID):
		s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonAlreadyHeld))
	default:
		standing, canManage := a.privilegeCheck(ctx, s, ev.GuildID, roleID)
		if !canManage {
			s.Add(consequence.Skipped(consequence.StepAddVerified, consequence.ReasonInsufficientPerms))
			break
		}
		if err := a.guild.AddRole(ctx, ev.GuildID, ev.DiscordID, roleID); err != nil {
			s.Add(consequence.Failed(consequence.StepAddVerified, roleFailureReason(err), err).Escalated())
			return s, s.Err()
		}
		s.Add(consequence.Applied(consequence.StepAddVerified, consequence.ReasonApplied).WithDetail(roleID))
		a.syncName(ctx, s, cfg, standing, member, link.ExternalID, link.ExternalHandle)
	}

	a.removeUnverified(ctx, s, cfg, member)
	return s, nil
}

// loadConfig falls back to the default policy when the guild has no row.
func (a *ConsequenceApplier) loadConfig(ctx context.Context, s *consequence.Summary, guildID string) (model.ContextConfig, bool) {
	cfg, err := a.configs.Get(ctx, guildID)
	switch {
	case err == nil:
		return *cfg, true
	case apperrors.IsNotFound(err):
		return model.DefaultContextConfig(guildID), true
	default:
		s.Add(consequence.Failed(consequence.StepLoadConfig, consequence.ReasonUpstreamError, err).Escalated())
		return model.ContextConfig{}, false
	}
}

func (a *ConsequenceApplier) fetchMember(
	ctx context.Context,
	s *consequence.Summary,
	guildID, userID string,
) (*model.GuildMember, bool) {
	member, err := a.guild.Member(ctx, guildID, userID)
	if err != nil {
		if errors.Is(err, ports.ErrMemberNotFound) {
			s.Add(consequence.Skipped(consequence.StepFetchMember, consequence.ReasonMemberNotFound))
		} else {
			s.Add(consequence.Failed(consequence.StepFetchMember, consequence.ReasonUpstreamError, err))
		}
		return nil, false
	}
	return member, true
}

// privilegeCheck reports the bot's standing and whether it may manage roleID.
func (a *ConsequenceApplier) privilegeCheck(
	ctx context.Context,
	s *consequence.Summary,
	guildID, roleID string,
) (model.BotStanding, bool) {
	standing, err := a.guild.BotStanding(ctx, guildID)
	if err != nil {
		s.Add(consequence.Failed(consequence.StepPrivilegeCheck, consequence.ReasonUpstreamError, err))
		return model.BotStanding{}, false
	}
	roles, err := a.guild.Roles(ctx, guildID)
	if err != nil {
		s.Add(consequence.Failed(consequence.StepPrivilegeCheck, consequence.ReasonUpstreamError, err))
		return standing, false
	}

	var role *model.GuildRole
	for i := range roles {
		if roles[i].ID == roleID {
			role = &roles[i]
			break
		}
	}
	if ok, reason := consequence.CanManageRole(standing, role); !ok {
		s.Add(consequence.Skipped(consequence.StepPrivilegeCheck, reason).WithDetail(roleID))
		return standing, false
	}
	s.Add(consequence.Applied(consequence.StepPrivilegeCheck, consequence.ReasonApplied))
	return standing, true
}

func (a *ConsequenceApplier) syncName(
	ctx context.Context,
	s *consequence.Summary,
	cfg model.ContextConfig,
	standing model.BotStanding,
	member *model.GuildMember,
	robloxID, username string,
) consequence.StepResult {
	result := a.nameSyncResult(ctx, cfg, standing, member, robloxID, username)
	s.Add(result)
	return result
}

func (a *ConsequenceApplier) nameSyncResult(
	ctx context.Context,
	cfg model.ContextConfig,
	standing model.BotStanding,
	member *model.GuildMember,
	robloxID, username string,
) consequence.StepResult {
	if !cfg.NameSyncEnabled {
		return consequence.Skipped(consequence.StepNameSync, consequence.ReasonDisabled)
	}
	if !consequence.CanManageNickname(standing) {
		return consequence.Skipped(consequence.StepNameSync, consequence.ReasonMissingPermission)
	}

	format := cfg.Format()
	var display string
	if format != model.NameSyncUsername && a.directory != nil {
		profile, err := a.directory.Profile(ctx, robloxID)
		if err != nil {
			a.logger.WarnContext(ctx, "display name lookup failed, using username",
				"roblox_id", robloxID, "error", err)
		} else {
			display = profile.DisplayName
			if username == "" {
				username = profile.Name
			}
		}
	}

	nick := consequence.BuildNickname(format, username, display)
	if nick == "" {
		return consequence.Skipped(consequence.StepNameSync, consequence.ReasonEmptyNickname)
	}
	if member.Nick == nick {
		return consequence.Skipped(consequence.StepNameSync, consequence.ReasonUnchanged).WithDetail(nick)
	}
	if err := a.guild.SetNickname(ctx, cfg.ContextID, member.UserID, nick); err != nil {
		return consequence.Failed(consequence.StepNameSync, consequence.ReasonSetFailed, err)
	}
	return consequence.Applied(consequence.StepNameSync, consequence.ReasonApplied).WithDetail(nick)
}

func (a *ConsequenceApplier) removeUnverified(
	ctx context.Context,
	s *consequence.Summary,
	cfg model.ContextConfig,
	member *model.GuildMember,
) {
	roleID, ok := cfg.UnverifiedRole()
	switch {
	case !ok:
		s.Add(consequence.Skipped(consequence.StepRemoveUnverified, consequence.ReasonNotConfigured))
	case !member.HasRole(roleID):
		s.Add(consequence.Skipped(consequence.StepRemoveUnverified, consequence.ReasonNotHeld))
	default:
		a.removeRole(ctx, s, consequence.StepRemoveUnverified, member, roleID)
	}
}

func (a *ConsequenceApplier) addUnverified(
	ctx context.Context,
	s *consequence.Summary,
	cfg model.ContextConfig,
	member *model.GuildMember,
) {
	roleID, ok := cfg.UnverifiedRole()
	switch {
	case !ok:
		s.Add(consequence.Skipped(consequence.StepAddUnverified, consequence.ReasonNotConfigured))
	case member.HasRole(roleID):
		s.Add(consequence.Skipped(consequence.StepAddUnverified, consequence.ReasonAlreadyHeld))
	default:
		if err := a.guild.AddRole(ctx, cfg.ContextID, member.UserID, roleID); err != nil {
			s.Add(consequence.Failed(consequence.StepAddUnverified, roleFailureReason(err), err))
			return
		}
		s.Add(consequence.Applied(consequence.StepAddUnverified, consequence.ReasonApplied).WithDetail(roleID))
	}
}

// removeRole records a non-fatal removal of roleID.
func (a *ConsequenceApplier) removeRole(
	ctx context.Context,
	s *consequence.Summary,
	step consequence.Step,
	member *model.GuildMember,
	roleID string,
) {
	guildID := s.ContextID
	if err := a.guild.RemoveRole(ctx, guildID, member.UserID, roleID); err != nil {
		a.logger.WarnContext(ctx, "role removal failed",
			"guild_id", guildID, "discord_id", member.UserID, "role_id", roleID, "error", err)
		s.Add(consequence.Failed(step, roleFailureReason(err), err))
		return
	}
	s.Add(consequence.Applied(step, consequence.ReasonApplied).WithDetail(roleID))
}

func (a *ConsequenceApplier) notify(ctx context.Context, s *consequence.Summary, notice VerificationNotice) {
	if a.notifier == nil {
		s.Add(consequence.Skipped(consequence.StepNotify, consequence.ReasonNotConfigured))
		return
	}
	tier, err := a.notifier.Notify(ctx, notice)
	if err != nil {
		s.Add(consequence.Failed(consequence.StepNotify, consequence.ReasonUpstreamError, err).WithDetail(string(tier)))
		return
	}
	s.Add(consequence.Applied(consequence.StepNotify, consequence.ReasonApplied).WithDetail(string(tier)))
}

func (a *ConsequenceApplier) guildName(ctx context.Context, guildID string) string {
	info, err := a.guild.Guild(ctx, guildID)
	if err != nil {
		a.logger.DebugContext(ctx, "guild lookup failed", "guild_id", guildID, "error", err)
		return ""
	}
	return info.Name
}

// finish logs the summary and records one metric per step.
func (a *ConsequenceApplier) finish(ctx context.Context, s *consequence.Summary) {
	for _, r := range s.Steps {
		a.metrics.ObserveStep(s.Event, string(r.Step), string(r.Outcome))
	}
	level := slog.LevelInfo
	if s.Count(consequence.OutcomeFailed) > 0 {
		level = slog.LevelWarn
	}
	a.logger.Log(ctx, level, "consequences applied",
		"event", s.Event,
		"discord_id", s.SubjectID,
		"guild_id", s.ContextID,
		"steps", s.String(),
	)
}

func roleFailureReason(err error) string {
	if errors.Is(err, ports.ErrMissingPermissions) {
		return consequence.ReasonPermissionDenied
	}
	return consequence.ReasonUpstreamError
}
