package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_AcceptsStringsAndNumbers(t *testing.T) {
	var p VerifyCompletePayload
	body := `{"discordId":"123456789012345678","guildId":876543210987654321,"robloxId":42,"robloxUsername":"Builder"}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	assert.Equal(t, FlexString("123456789012345678"), p.DiscordID)
	assert.Equal(t, FlexString("876543210987654321"), p.GuildID)
	assert.Equal(t, FlexString("42"), p.RobloxID)

	n, err := p.RobloxID.ParseInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestFlexString_Null(t *testing.T) {
	var p UnlinkPayload
	require.NoError(t, json.Unmarshal([]byte(`{"discordId":null}`), &p))
	assert.Empty(t, p.DiscordID)
}

func TestDiscordUser_AvatarURL(t *testing.T) {
	u := DiscordUser{ID: "1", Avatar: "abc"}
	assert.Equal(t, "https://cdn.discordapp.com/avatars/1/abc.png?size=256", u.AvatarURL("https://cdn.discordapp.com"))
	assert.Equal(t, DefaultAvatarURL, DiscordUser{ID: "1"}.AvatarURL("https://cdn.discordapp.com"))
}

func TestIdentityLink_TokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Minute)
	tok := "tok"

	assert.True(t, (&IdentityLink{}).TokenExpired(now))
	assert.False(t, (&IdentityLink{TokenExpiry: &future}).TokenExpired(now))
	assert.True(t, (&IdentityLink{TokenExpiry: &past}).TokenExpired(now))
	assert.True(t, (&IdentityLink{AccessToken: &tok}).HasAccessToken())
	assert.False(t, (*IdentityLink)(nil).HasAccessToken())
}

func TestBotStanding_Has(t *testing.T) {
	assert.True(t, BotStanding{Permissions: PermissionAdministrator}.Has(PermissionManageRoles))
	assert.True(t, BotStanding{Permissions: PermissionManageRoles | PermissionSendMessages}.Has(PermissionManageRoles))
	assert.False(t, BotStanding{Permissions: PermissionSendMessages}.Has(PermissionManageNicknames))
}

func TestTokenBundle(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	b := NewTokenBundle("123", OAuthToken{AccessToken: "a", RefreshToken: "r", ExpiresIn: 604800}, now)
	assert.Equal(t, "token_s1", TokenBundleKey("s1"))
	assert.Equal(t, int64(1_700_000_000_000), b.Timestamp)
	assert.Equal(t, "a", b.AccessToken)
}
