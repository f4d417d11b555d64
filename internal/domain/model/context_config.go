package model

import (
	"fmt"
	"strings"
	"time"
)

// NameSyncFormat selects how a member nickname is derived from the Roblox identity.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type NameSyncFormat string

const (
	// NameSyncUsername uses the Roblox username.
	NameSyncUsername NameSyncFormat = "username"
	// NameSyncDisplay uses the Roblox display name, falling back to the username.
	NameSyncDisplay NameSyncFormat = "display"
	// NameSyncSmart renders "Display (@username)".
	NameSyncSmart NameSyncFormat = "smart"
)

// Valid reports whether f is a known format.
func (f NameSyncFormat) Valid() bool {
	return f == NameSyncUsername || f == NameSyncDisplay || f == NameSyncSmart
}

// UnmarshalText implements encoding.TextUnmarshaler for NameSyncFormat.
func (f *NameSyncFormat) UnmarshalText(text []byte) error {
	v := NameSyncFormat(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid NameSyncFormat: %q (valid options: username, display, smart)", v)
	}
	*f = v
	return nil
}

// ContextConfig is the per-guild policy consulted by the consequence applier.
type ContextConfig struct {
	ContextID                string         `json:"guildId"                            db:"context_id"`
	VerifiedRoleID           string         `json:"verifiedRoleId,omitempty"           db:"verified_role_id"`
	UnverifiedRoleID         string         `json:"unverifiedRoleId,omitempty"         db:"unverified_role_id"`
	UseUnverifiedRole        bool           `json:"useUnverifiedRole"                  db:"use_unverified_role"`
	VerifiedRoleEnabled      bool           `json:"verifiedRoleEnabled"                db:"verified_role_enabled"`
	AutoVerifyOnJoin         bool           `json:"autoVerifyOnJoin"                   db:"auto_verify_on_join"`
	NameSyncEnabled          bool           `json:"nameSyncEnabled"                    db:"name_sync_enabled"`
	NameSyncFormat           NameSyncFormat `json:"nameSyncFormat"                     db:"name_sync_format"`
	DMFailureFallbackChannel string         `json:"dmFailureFallbackChannel,omitempty" db:"dm_failure_fallback_channel"`
	CreatedAt                time.Time      `json:"-"                                  db:"created_at"`
	UpdatedAt                time.Time      `json:"-"                                  db:"updated_at"`
}

// DefaultContextConfig returns the policy used when a guild has no stored row.
func DefaultContextConfig(contextID string) ContextConfig {
	return ContextConfig{
		ContextID:           contextID,
		VerifiedRoleEnabled: true,
		NameSyncFormat:      NameSyncUsername,
	}
}

// VerifiedRole returns the configured verified role or fallback when unset.
func (c ContextConfig) VerifiedRole(fallback string) string {
	if c.VerifiedRoleID != "" {
		return c.VerifiedRoleID
	}
	return fallback
}

// UnverifiedRole returns the unverified role when the guild opted into using one.
func (c ContextConfig) UnverifiedRole() (string, bool) {
	if !c.UseUnverifiedRole || c.UnverifiedRoleID == "" {
		return "", false
	}
	return c.UnverifiedRoleID, true
}

// Format returns the name sync format, defaulting to username.
func (c ContextConfig) Format() NameSyncFormat {
	if c.NameSyncFormat.Valid() {
		return c.NameSyncFormat
	}
	return NameSyncUsername
}
