package model

import (
	"fmt"
	"time"
)

// OAuthToken is the provider-agnostic result of an authorization code or refresh exchange.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the lifetime in seconds reported by the provider, zero when unknown.
	ExpiresIn int64
	Expiry    time.Time
}

// DiscordUser is the subset of /users/@me used by the unlink flow.
type DiscordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// DefaultAvatarURL is shown when a Discord user has no custom avatar.
const DefaultAvatarURL = "https://cdn.discordapp.com/embed/avatars/0.png"

// AvatarURL renders the CDN avatar URL, or DefaultAvatarURL when none is set.
func (u DiscordUser) AvatarURL(cdnBase string) string {
	if u.Avatar == "" || u.ID == "" {
		return DefaultAvatarURL
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png?size=256", cdnBase, u.ID, u.Avatar)
}

// RobloxIdentity is the projection of Roblox userinfo claims used by the link flow.
type RobloxIdentity struct {
	Subject  string `json:"sub"`
	Name     string `json:"name,omitempty"`
	Username string `json:"preferred_username,omitempty"`
	Picture  string `json:"picture,omitempty"`
}
