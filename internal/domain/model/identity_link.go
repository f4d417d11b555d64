package model

import "time"

// IdentityLink is the persisted binding of a Discord user to a Roblox account.
// One row per subject; a new link overwrites the previous one.
type IdentityLink struct {
	SubjectID      string     `json:"discordId"  db:"subject_id"`
	ExternalID     string     `json:"robloxId"   db:"external_id"`
	ExternalHandle string     `json:"username"   db:"external_handle"`
	LinkedAt       time.Time  `json:"verifiedAt" db:"linked_at"`
	AccessToken    *string    `json:"-"          db:"discord_access_token"`
	RefreshToken   *string    `json:"-"          db:"discord_refresh_token"`
	TokenExpiry    *time.Time `json:"-"          db:"discord_token_expiry"`
	CreatedAt      time.Time  `json:"-"          db:"created_at"`
	UpdatedAt      time.Time  `json:"-"          db:"updated_at"`
}

// HasAccessToken reports whether an OAuth access token is on file.
func (l *IdentityLink) HasAccessToken() bool {
	return l != nil && l.AccessToken != nil && *l.AccessToken != ""
}

// TokenExpired reports whether the stored token has no expiry or expired before now.
func (l *IdentityLink) TokenExpired(now time.Time) bool {
	if l == nil || l.TokenExpiry == nil {
		return true
	}
	return !now.Before(*l.TokenExpiry)
}

// LinkTokens carries Discord OAuth tokens persisted alongside a link.
type LinkTokens struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// UpsertIdentityLinkRequest creates or replaces the link for a subject.
// Tokens are only written when non-nil; existing tokens survive otherwise.
type UpsertIdentityLinkRequest struct {
	SubjectID      string
	ExternalID     string
	ExternalHandle string
	LinkedAt       time.Time
	Tokens         *LinkTokens
}
