package consequence

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
)

func TestBuildNickname(t *testing.T) {
	tests := []struct {
		name     string
		format   model.NameSyncFormat
		username string
		display  string
		want     string
	}{
		{name: "username", format: model.NameSyncUsername, username: "builder", display: "Bob", want: "builder"},
		{name: "display", format: model.NameSyncDisplay, username: "builder", display: "Bob", want: "Bob"},
		{name: "display falls back", format: model.NameSyncDisplay, username: "builder", want: "builder"},
		{name: "smart", format: model.NameSyncSmart, username: "builder", display: "Bob", want: "Bob (@builder)"},
		{name: "smart without display", format: model.NameSyncSmart, username: "builder", want: "builder (@builder)"},
		{name: "unknown format", format: "other", username: "builder", display: "Bob", want: "builder"},
		{name: "empty", format: model.NameSyncUsername, want: ""},
		{
			name:     "truncated",
			format:   model.NameSyncSmart,
			username: "averyveryverylongusername",
			display:  "Display",
			want:     "Display (@averyveryverylongusern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNickname(tt.format, tt.username, tt.display)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len([]rune(got)), MaxNicknameLength)
		})
	}
}

func TestBuildNickname_TruncatesRunes(t *testing.T) {
	got := BuildNickname(model.NameSyncDisplay, "u", strings.Repeat("é", 40))
	assert.Equal(t, 32, len([]rune(got)))
}

func TestCanManageRole(t *testing.T) {
	role := &model.GuildRole{ID: "r", Position: 5}
	tests := []struct {
		name   string
		bot    model.BotStanding
		role   *model.GuildRole
		ok     bool
		reason string
	}{
		{name: "allowed", bot: model.BotStanding{TopRolePosition: 6, Permissions: model.PermissionManageRoles}, role: role, ok: true},
		{name: "admin", bot: model.BotStanding{TopRolePosition: 6, Permissions: model.PermissionAdministrator}, role: role, ok: true},
		{name: "missing perm", bot: model.BotStanding{TopRolePosition: 6}, role: role, reason: ReasonInsufficientPerms},
		{name: "equal position", bot: model.BotStanding{TopRolePosition: 5, Permissions: model.PermissionManageRoles}, role: role, reason: ReasonRoleAboveBot},
		{name: "unknown role", bot: model.BotStanding{TopRolePosition: 9, Permissions: model.PermissionManageRoles}, reason: ReasonRoleNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := CanManageRole(tt.bot, tt.role)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestSummary(t *testing.T) {
	s := NewSummary("linked", "1", "2")
	s.Add(Applied(StepAddVerified, ReasonApplied))
	s.Add(Skipped(StepNameSync, ReasonDisabled))
	s.Add(Failed(StepNotify, ReasonUpstreamError, errors.New("dm closed")).WithDetail("bot"))

	assert.True(t, s.Applied(StepAddVerified))
	assert.False(t, s.Applied(StepNameSync))
	assert.Equal(t, 1, s.Count(OutcomeFailed))
	require.NoError(t, s.Err())
	assert.Contains(t, s.String(), "notify=failed(upstream_error:bot)")

	s.Add(Failed(StepAddVerified, ReasonPermissionDenied, errors.New("50013")).Escalated())
	err := s.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add_verified_role: 50013")

	last, ok := s.Result(StepAddVerified)
	require.True(t, ok)
	assert.Equal(t, OutcomeFailed, last.Outcome)
}
