package model

import "time"

// TokenBundleKeyPrefix prefixes session keys holding a TokenBundle.
const TokenBundleKeyPrefix = "token_"

// TokenBundle carries the first-leg Discord tokens from the relay into the
// second leg. It is stored under TokenBundleKey and consumed exactly once.
type TokenBundle struct {
	DiscordID    string `json:"discordId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// TokenBundleKey returns the session store key for sessionID.
func TokenBundleKey(sessionID string) string {
	return TokenBundleKeyPrefix + sessionID
}

// NewTokenBundle builds a bundle stamped with now in epoch milliseconds.
func NewTokenBundle(discordID string, tok OAuthToken, now time.Time) TokenBundle {
	return TokenBundle{
		DiscordID:    discordID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Timestamp:    now.UnixMilli(),
	}
}
