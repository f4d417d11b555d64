package ports

import (
	"context"
	"errors"

	"github.com/trizly/lumi-link/internal/domain/model"
)

var (
	// ErrMemberNotFound is returned when the user is not a member of the guild.
	ErrMemberNotFound = errors.New("guild member not found")
	// ErrMissingPermissions is returned when the platform rejects a call for lack of permissions.
	ErrMissingPermissions = errors.New("missing permissions")
	// ErrNotFound is returned when a remote resource does not exist.
	ErrNotFound = errors.New("remote resource not found")
)

// DiscordOAuth is the first OAuth leg and the user-token API surface.
type DiscordOAuth interface {
	AuthCodeURL(state, redirectURL string, scopes ...string) string
	Exchange(ctx context.Context, code, redirectURL string) (model.OAuthToken, error)
	Refresh(ctx context.Context, refreshToken string) (model.OAuthToken, error)
	CurrentUser(ctx context.Context, accessToken string) (model.DiscordUser, error)
	// SendDirectMessage opens a DM channel with the user's own token and posts content.
	SendDirectMessage(ctx context.Context, accessToken, recipientID, content string) error
}

// RobloxOAuth is the second OAuth leg.
type RobloxOAuth interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (model.OAuthToken, error)
	UserInfo(ctx context.Context, token model.OAuthToken) (model.RobloxIdentity, error)
}

// GuildPlatform is the bot-side API of the chat platform.
type GuildPlatform interface {
	Guild(ctx context.Context, guildID string) (model.GuildInfo, error)
	Member(ctx context.Context, guildID, userID string) (*model.GuildMember, error)
	Roles(ctx context.Context, guildID string) ([]model.GuildRole, error)
	BotStanding(ctx context.Context, guildID string) (model.BotStanding, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	SetNickname(ctx context.Context, guildID, userID, nickname string) error
	SendDirectMessage(ctx context.Context, userID, content string) error
	ChannelPermissions(ctx context.Context, channelID string) (int64, error)
	SendChannelMessage(ctx context.Context, channelID, content string) error
}

// RobloxDirectory resolves public Roblox profile data.
type RobloxDirectory interface {
	// ResolveUsername returns ErrNotFound when no user has that name.
	ResolveUsername(ctx context.Context, username string) (string, error)
	// Profile returns ErrNotFound when the user does not exist.
	Profile(ctx context.Context, userID string) (*model.RobloxProfile, error)
	// AvatarURL returns an empty string when no thumbnail is available.
	AvatarURL(ctx context.Context, userID string) (string, error)
}
