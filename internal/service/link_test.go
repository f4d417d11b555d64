package service

import (
	"context"
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

const (
	testDiscordID = "123456789012345678"
	testGuildID   = "876543210987654321"
)

type fakeLinkEvents struct {
	linked   []model.LinkedEvent
	unlinked []model.UnlinkedEvent
	err      error
}

func (f *fakeLinkEvents) PublishLinked(_ context.Context, ev model.LinkedEvent) error {
	f.linked = append(f.linked, ev)
	return f.err
}

func (f *fakeLinkEvents) PublishUnlinked(_ context.Context, ev model.UnlinkedEvent) error {
	f.unlinked = append(f.unlinked, ev)
	return f.err
}

func newTestLinkService(t *testing.T, links *mocks.MockIdentityLinkRepository, events *fakeLinkEvents) *LinkService {
	t.Helper()
	svc, err := NewLinkService(LinkServiceOptions{
		Links:  links,
		Events: events,
		Secret: "s3cret",
		Now:    func() time.Time { return time.UnixMilli(1_700_000_000_000).UTC() },
	})
	require.NoError(t, err)
	return svc
}

func TestLinkService_CheckSecret(t *testing.T) {
	svc := newTestLinkService(t, nil, &fakeLinkEvents{})
	assert.True(t, svc.CheckSecret("s3cret"))
	assert.False(t, svc.CheckSecret("s3cre"))
	assert.False(t, svc.CheckSecret(""))

	open, err := NewLinkService(LinkServiceOptions{Links: mocks.NewMockIdentityLinkRepository(gomock.NewController(t)), Events: &fakeLinkEvents{}})
	require.NoError(t, err)
	assert.False(t, open.CheckSecret(""))
	assert.False(t, open.CheckSecret("anything"))
}

func TestLinkService_CompleteVerificationValidation(t *testing.T) {
	svc := newTestLinkService(t, nil, &fakeLinkEvents{})
	base := model.VerifyCompletePayload{DiscordID: testDiscordID, GuildID: testGuildID, RobloxID: "156", RobloxUsername: "builder"}

	tests := []struct {
		name   string
		mutate func(*model.VerifyCompletePayload)
		want   string
	}{
		{name: "missing guild", mutate: func(p *model.VerifyCompletePayload) { p.GuildID = "" }, want: MsgMissingFields},
		{name: "short discord id", mutate: func(p *model.VerifyCompletePayload) { p.DiscordID = "123" }, want: MsgInvalidIDFormat},
		{name: "roblox id not numeric", mutate: func(p *model.VerifyCompletePayload) { p.RobloxID = "12a" }, want: MsgInvalidRobloxID},
		{name: "username sanitizes to empty", mutate: func(p *model.VerifyCompletePayload) { p.RobloxUsername = "!!--" }, want: MsgInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := svc.CompleteVerification(context.Background(), p)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestLinkService_CompleteVerificationPersistsTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	events := &fakeLinkEvents{}
	svc := newTestLinkService(t, links, events)

	links.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.UpsertIdentityLinkRequest) (*model.IdentityLink, error) {
			assert.Equal(t, "builder_1script", req.ExternalHandle)
			require.NotNil(t, req.Tokens)
			assert.Equal(t, "at", req.Tokens.AccessToken)
			// timestamp + default lifetime of seven days
			assert.Equal(t, time.UnixMilli(1_600_000_000_000+604800*1000).UTC(), req.Tokens.Expiry)
			return &model.IdentityLink{SubjectID: req.SubjectID, ExternalID: req.ExternalID, ExternalHandle: req.ExternalHandle}, nil
		})

	summary, err := svc.CompleteVerification(context.Background(), model.VerifyCompletePayload{
		DiscordID:             testDiscordID,
		GuildID:               testGuildID,
		RobloxID:              "156",
		RobloxUsername:        "builder_1 <script>",
		DiscordAccessToken:    "at",
		DiscordRefreshToken:   "rt",
		DiscordTokenTimestamp: 1_600_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerifiedUserSummary{DiscordID: testDiscordID, RobloxID: "156", Username: "builder_1script"}, *summary)
	require.Len(t, events.linked, 1)
	assert.Equal(t, testGuildID, events.linked[0].GuildID)
}

func TestLinkService_CompleteVerificationWithoutTokens(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	events := &fakeLinkEvents{err: errors.New("queue down")}
	svc := newTestLinkService(t, links, events)

	links.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req model.UpsertIdentityLinkRequest) (*model.IdentityLink, error) {
			assert.Nil(t, req.Tokens)
			return &model.IdentityLink{SubjectID: req.SubjectID, ExternalID: req.ExternalID, ExternalHandle: req.ExternalHandle}, nil
		})

	_, err := svc.CompleteVerification(context.Background(), model.VerifyCompletePayload{
		DiscordID: testDiscordID, GuildID: testGuildID, RobloxID: "156", RobloxUsername: "builder",
	})
	require.NoError(t, err, "queue failures are not surfaced")
}

func TestLinkService_CompleteVerificationStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	svc := newTestLinkService(t, links, &fakeLinkEvents{})
	links.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := svc.CompleteVerification(context.Background(), model.VerifyCompletePayload{
		DiscordID: testDiscordID, GuildID: testGuildID, RobloxID: "156", RobloxUsername: "builder",
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgVerificationFailed, appErr.Message)
	assert.Equal(t, 500, appErr.HTTPStatus())
}

func TestLinkService_Unlink(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	events := &fakeLinkEvents{}
	svc := newTestLinkService(t, links, events)

	links.EXPECT().DeleteBySubject(gomock.Any(), testDiscordID).
		Return(&model.IdentityLink{SubjectID: testDiscordID, ExternalID: "156", ExternalHandle: "builder"}, nil)

	res, err := svc.Unlink(context.Background(), model.UnlinkPayload{DiscordID: testDiscordID})
	require.NoError(t, err)
	assert.True(t, res.Unlinked)
	assert.Equal(t, "156", res.Removed.RobloxID)
	require.Len(t, events.unlinked, 1)
	assert.Empty(t, events.unlinked[0].GuildID)
}

func TestLinkService_UnlinkWithoutRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	events := &fakeLinkEvents{}
	svc := newTestLinkService(t, links, events)

	links.EXPECT().DeleteBySubject(gomock.Any(), testDiscordID).Return(nil, apperrors.NotFound("identity link not found"))

	res, err := svc.Unlink(context.Background(), model.UnlinkPayload{DiscordID: testDiscordID})
	require.NoError(t, err)
	assert.False(t, res.Unlinked)
	assert.Empty(t, events.unlinked)
}

func TestLinkService_UnlinkValidation(t *testing.T) {
	svc := newTestLinkService(t, nil, &fakeLinkEvents{})

	_, err := svc.Unlink(context.Background(), model.UnlinkPayload{})
	assert.EqualError(t, err, MsgMissingDiscordID)
	_, err = svc.Unlink(context.Background(), model.UnlinkPayload{DiscordID: "abc"})
	assert.EqualError(t, err, MsgInvalidDiscordID)
}

func TestLinkService_Reapply(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockIdentityLinkRepository(ctrl)
	events := &fakeLinkEvents{}
	svc := newTestLinkService(t, links, events)

	links.EXPECT().GetBySubject(gomock.Any(), testDiscordID).
		Return(&model.IdentityLink{SubjectID: testDiscordID, ExternalID: "156", ExternalHandle: "builder"}, nil)
	links.EXPECT().GetBySubject(gomock.Any(), "223456789012345678").Return(nil, apperrors.NotFound("identity link not found"))

	_, err := svc.Reapply(context.Background(), testDiscordID, testGuildID)
	require.NoError(t, err)
	require.Len(t, events.linked, 1)
	assert.Equal(t, model.LinkedEvent{DiscordID: testDiscordID, GuildID: testGuildID, RobloxID: "156", Username: "builder"}, events.linked[0])

	_, err = svc.Reapply(context.Background(), "223456789012345678", testGuildID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.EqualError(t, err, MsgNoRecord)
}
