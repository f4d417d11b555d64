package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/mocks"
)

type notifierFixture struct {
	links    *mocks.MockIdentityLinkRepository
	oauth    *mocks.MockDiscordOAuth
	guild    *mocks.MockGuildPlatform
	notifier *DMNotifier
	now      time.Time
}

func newNotifierFixture(t *testing.T) *notifierFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &notifierFixture{
		links: mocks.NewMockIdentityLinkRepository(ctrl),
		oauth: mocks.NewMockDiscordOAuth(ctrl),
		guild: mocks.NewMockGuildPlatform(ctrl),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	n, err := NewDMNotifier(DMNotifierOptions{
		Links: f.links,
		OAuth: f.oauth,
		Guild: f.guild,
		Now:   func() time.Time { return f.now },
	})
	require.NoError(t, err)
	f.notifier = n
	return f
}

func testNotice() VerificationNotice {
	return VerificationNotice{
		SubjectID:         testDiscordID,
		GuildID:           testGuildID,
		GuildName:         "Trizly",
		RobloxID:          "42",
		RobloxUsername:    "builder",
		FallbackChannelID: "333",
	}
}

func linkWithTokens(access, refresh string, expiry time.Time) *model.IdentityLink {
	return &model.IdentityLink{
		SubjectID:    testDiscordID,
		AccessToken:  &access,
		RefreshToken: &refresh,
		TokenExpiry:  &expiry,
	}
}

func TestVerificationNotice_Messages(t *testing.T) {
	n := testNotice()
	dm := n.DirectMessage()
	assert.Contains(t, dm, "Verification Complete")
	assert.Contains(t, dm, "Your verification in **Trizly** is complete.")
	assert.Contains(t, dm, "Roblox Account: builder")
	assert.Contains(t, dm, "Roblox ID: 42")
	assert.NotContains(t, dm, "nickname")

	n.NicknameFailed = true
	assert.Contains(t, n.DirectMessage(), "nickname could not be updated")

	n.GuildName = ""
	msg := n.ChannelMessage()
	assert.Contains(t, msg, "<@"+testDiscordID+">")
	assert.Contains(t, msg, "**this server**")
}

func TestDMNotifier_OAuthTier(t *testing.T) {
	f := newNotifierFixture(t)
	f.links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).
		Return(linkWithTokens("access", "refresh", f.now.Add(time.Hour)), nil)
	f.oauth.EXPECT().SendDirectMessage(gomock.Any(), "access", testDiscordID, gomock.Any()).Return(nil)

	tier, err := f.notifier.Notify(t.Context(), testNotice())
	require.NoError(t, err)
	assert.Equal(t, TierOAuth, tier)
}

func TestDMNotifier_RefreshesExpiredToken(t *testing.T) {
	f := newNotifierFixture(t)
	f.links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).
		Return(linkWithTokens("stale", "refresh", f.now.Add(-time.Minute)), nil)
	f.oauth.EXPECT().Refresh(gomock.Any(), "refresh").
		Return(model.OAuthToken{AccessToken: "fresh", ExpiresIn: 3600}, nil)
	f.links.EXPECT().UpdateTokens(gomock.Any(), testDiscordID, model.LinkTokens{
		AccessToken:  "fresh",
		RefreshToken: "refresh",
		Expiry:       f.now.Add(time.Hour),
	}).Return(true, nil)
	f.oauth.EXPECT().SendDirectMessage(gomock.Any(), "fresh", testDiscordID, gomock.Any()).Return(nil)

	tier, err := f.notifier.Notify(t.Context(), testNotice())
	require.NoError(t, err)
	assert.Equal(t, TierOAuth, tier)
}

func TestDMNotifier_FallsBackToBot(t *testing.T) {
	f := newNotifierFixture(t)
	f.links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).
		Return(linkWithTokens("access", "", f.now.Add(time.Hour)), nil)
	f.oauth.EXPECT().SendDirectMessage(gomock.Any(), "access", testDiscordID, gomock.Any()).
		Return(errors.New("403"))
	f.guild.EXPECT().SendDirectMessage(gomock.Any(), testDiscordID, gomock.Any()).Return(nil)

	tier, err := f.notifier.Notify(t.Context(), testNotice())
	require.NoError(t, err)
	assert.Equal(t, TierBot, tier)
}

func TestDMNotifier_FallbackChannel(t *testing.T) {
	f := newNotifierFixture(t)
	f.links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).Return(nil, apperrors.NotFound("none"))
	f.guild.EXPECT().SendDirectMessage(gomock.Any(), testDiscordID, gomock.Any()).Return(errors.New("dms closed"))
	f.guild.EXPECT().ChannelPermissions(gomock.Any(), "333").Return(model.PermissionSendMessages, nil)
	f.guild.EXPECT().SendChannelMessage(gomock.Any(), "333", gomock.Any()).Return(nil)

	tier, err := f.notifier.Notify(t.Context(), testNotice())
	require.NoError(t, err)
	assert.Equal(t, TierFallback, tier)
}

func TestDMNotifier_NothingDelivers(t *testing.T) {
	f := newNotifierFixture(t)
	f.links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).
		Return(linkWithTokens("stale", "", f.now.Add(-time.Minute)), nil)
	f.guild.EXPECT().SendDirectMessage(gomock.Any(), testDiscordID, gomock.Any()).Return(errors.New("dms closed"))
	f.guild.EXPECT().ChannelPermissions(gomock.Any(), "333").Return(int64(0), nil)

	tier, err := f.notifier.Notify(t.Context(), testNotice())
	require.ErrorIs(t, err, ErrNoDeliveryTier)
	assert.Equal(t, TierNone, tier)
	assert.Contains(t, err.Error(), "dms closed")
}
