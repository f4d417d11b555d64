package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/trizly/lumi-link/internal/core"
	"github.com/trizly/lumi-link/internal/domain/linkstate"
	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/ports"
)

// discordEpochMs is the Discord snowflake epoch in Unix milliseconds.
const discordEpochMs int64 = 1420070400000

const maxRobloxIDDigits = 20

// Lookup error messages.
const (
	MsgMissingIdentifier   = "Missing identifier"
	MsgNoLinkedRoblox      = "No linked Roblox account for that Discord ID"
	MsgNoRobloxUser        = "No Roblox user found for that username"
	MsgRobloxProfileFailed = "Failed to fetch Roblox profile"
)

// Lookup sources.
const (
	SourceDiscord = "discord"
	SourceRoblox  = "roblox"
)

// LookupServiceOptions groups dependencies for LookupService.
type LookupServiceOptions struct {
	Links     core.IdentityLinkRepository // Required
	Directory ports.RobloxDirectory       // Required
	Logger    *slog.Logger
}

// LookupService resolves accounts in either direction of a link.
type LookupService struct {
	links     core.IdentityLinkRepository
	directory ports.RobloxDirectory
	logger    *slog.Logger
}

// NewLookupService constructs a LookupService.
func NewLookupService(opts LookupServiceOptions) (*LookupService, error) {
	if opts.Links == nil {
		return nil, errors.New("IdentityLinkRepository is required")
	}
	if opts.Directory == nil {
		return nil, errors.New("RobloxDirectory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupService{
		links:     opts.Links,
		directory: opts.Directory,
		logger:    logger.With("component", "lookup_service"),
	}, nil
}

// SnowflakeTime returns the creation time encoded in a Discord snowflake.
func SnowflakeTime(id string) (time.Time, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(n>>22) + discordEpochMs).UTC(), true
}

// DiscordInfoFromID builds the Discord side of a lookup from the id alone.
func DiscordInfoFromID(id string) *model.DiscordInfo {
	info := &model.DiscordInfo{ID: id}
	if ts, ok := SnowflakeTime(id); ok {
		created := ts.Format(time.RFC3339Nano)
		info.CreatedAt = &created
	}
	return info
}

// LookupDiscord describes a Discord account and its linked Roblox account, if any.
func (s *LookupService) LookupDiscord(ctx context.Context, discordID string) (*model.LookupResult, error) {
	if !linkstate.IsSnowflake(discordID) {
		return nil, apperrors.Validation(MsgInvalidDiscordID)
	}

	res := &model.LookupResult{Discord: DiscordInfoFromID(discordID), Source: SourceDiscord}
	link, err := s.links.GetBySubject(ctx, discordID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.ErrorContext(ctx, "link lookup failed", "discord_id", discordID, "error", err)
		}
		return res, nil
	}

	res.Linked = true
	roblox, err := s.robloxInfo(ctx, link.ExternalID)
	if err != nil {
		s.logger.WarnContext(ctx, "roblox info fetch failed", "roblox_id", link.ExternalID, "error", err)
		return res, nil
	}
	res.Roblox = roblox
	return res, nil
}

// LookupRoblox accepts a Discord snowflake, a numeric Roblox id or a Roblox
// username and describes the Roblox account and any linked Discord account.
func (s *LookupService) LookupRoblox(ctx context.Context, identifier string) (*model.LookupResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.Validation(MsgMissingIdentifier)
	}

	robloxID, err := s.resolveRobloxID(ctx, identifier)
	if err != nil {
		return nil, err
	}

	roblox, err := s.robloxInfo(ctx, robloxID)
	if err != nil {
		s.logger.WarnContext(ctx, "roblox info fetch failed", "roblox_id", robloxID, "error", err)
		return nil, apperrors.Upstream(err, MsgRobloxProfileFailed)
	}

	res := &model.LookupResult{Roblox: roblox, Source: SourceRoblox}
	link, err := s.links.GetByExternalID(ctx, robloxID)
	switch {
	case err == nil:
		res.Linked = true
		res.Discord = DiscordInfoFromID(link.SubjectID)
	case !apperrors.IsNotFound(err):
		s.logger.ErrorContext(ctx, "link lookup failed", "roblox_id", robloxID, "error", err)
	}
	return res, nil
}

func (s *LookupService) resolveRobloxID(ctx context.Context, identifier string) (string, error) {
	switch {
	case linkstate.IsSnowflake(identifier):
		link, err := s.links.GetBySubject(ctx, identifier)
		if err != nil {
			if !apperrors.IsNotFound(err) {
				s.logger.ErrorContext(ctx, "link lookup failed", "discord_id", identifier, "error", err)
			}
			return "", apperrors.NotFound(MsgNoLinkedRoblox)
		}
		return link.ExternalID, nil
	case linkstate.IsNumeric(identifier) && len(identifier) <= maxRobloxIDDigits:
		return identifier, nil
	default:
		id, err := s.directory.ResolveUsername(ctx, identifier)
		if err != nil {
			if !errors.Is(err, ports.ErrNotFound) {
				s.logger.WarnContext(ctx, "roblox username resolve failed", "identifier", identifier, "error", err)
			}
			return "", apperrors.NotFound(MsgNoRobloxUser)
		}
		return id, nil
	}
}

// robloxInfo fetches the profile and avatar. A missing avatar is not an error.
func (s *LookupService) robloxInfo(ctx context.Context, robloxID string) (*model.RobloxInfo, error) {
	profile, err := s.directory.Profile(ctx, robloxID)
	if err != nil {
		return nil, err
	}

	info := &model.RobloxInfo{
		ID:          robloxID,
		Name:        profile.Name,
		DisplayName: profile.DisplayName,
		Description: profile.Description,
		ProfileURL:  "https://www.roblox.com/users/" + robloxID + "/profile",
	}
	if info.DisplayName == "" {
		info.DisplayName = profile.Name
	}
	if created, perr := time.Parse(time.RFC3339Nano, profile.Created); perr == nil {
		v := created.UTC().Format(time.RFC3339Nano)
		info.CreatedAt = &v
	}

	avatar, err := s.directory.AvatarURL(ctx, robloxID)
	if err != nil {
		s.logger.WarnContext(ctx, "roblox avatar fetch failed", "roblox_id", robloxID, "error", err)
	} else if avatar != "" {
		info.AvatarURL = &avatar
	}
	return info, nil
}
