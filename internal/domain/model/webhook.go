package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// VerifyCompletePayload is the body the relay posts to the origin when a link completes.
type VerifyCompletePayload struct {
	DiscordID             FlexString `json:"discordId"`
	GuildID               FlexString `json:"guildId"`
	RobloxID              FlexString `json:"robloxId"`
	RobloxUsername        string     `json:"robloxUsername"`
	IsSynthetic           bool       `json:"isSynthetic"`
	DiscordAccessToken    string     `json:"discordAccessToken,omitempty"`
	DiscordRefreshToken   string     `json:"discordRefreshToken,omitempty"`
	DiscordTokenExpiresIn int64      `json:"discordTokenExpiresIn,omitempty"`
	DiscordTokenTimestamp int64      `json:"discordTokenTimestamp,omitempty"`
}

// UnlinkPayload is the body of an unlink webhook.
type UnlinkPayload struct {
	DiscordID   FlexString `json:"discordId"`
	IsSynthetic bool       `json:"isSynthetic"`
}

// VerifiedUserSummary is echoed back by the receiver after a link or unlink.
type VerifiedUserSummary struct {
	DiscordID string `json:"discordId"`
	RobloxID  string `json:"robloxId"`
	Username  string `json:"username"`
}

// SummaryOf renders the summary for a persisted link.
func SummaryOf(l *IdentityLink) VerifiedUserSummary {
	return VerifiedUserSummary{DiscordID: l.SubjectID, RobloxID: l.ExternalID, Username: l.ExternalHandle}
}

// ParseInt64 parses a FlexString as a base-10 integer.
func (f FlexString) ParseInt64() (int64, error) {
	return strconv.ParseInt(string(f), 10, 64)
}
