package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trizly/lumi-link/internal/domain/model"
	"github.com/trizly/lumi-link/internal/mocks"
)

func TestLinkEventPublisher_PublishLinked(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)

	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypeLinked, req.Type)
			assert.Empty(t, req.DedupeKey)
			assert.Equal(t, 3, req.MaxRetries)
			var ev model.LinkedEvent
			require.NoError(t, json.Unmarshal(req.Payload, &ev))
			assert.Equal(t, "builder", ev.Username)
			return &model.Job{ID: "j1"}, nil
		})

	p, err := NewLinkEventPublisher(LinkEventPublisherOptions{Jobs: jobs, MaxRetries: 3})
	require.NoError(t, err)
	require.NoError(t, p.PublishLinked(context.Background(), model.LinkedEvent{
		DiscordID: "123456789012345678", GuildID: "876543210987654321", RobloxID: "156", Username: "builder",
	}))
}

func TestLinkEventPublisher_MemberJoinedDedupes(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *model.CreateJobRequest) (*model.Job, error) {
			assert.Equal(t, model.JobTypeMemberJoined, req.Type)
			assert.Equal(t, "876543210987654321:123456789012345678", req.DedupeKey)
			return &model.Job{ID: "j2"}, nil
		})

	p, err := NewLinkEventPublisher(LinkEventPublisherOptions{Jobs: jobs})
	require.NoError(t, err)
	require.NoError(t, p.MemberJoined(context.Background(), model.MemberJoinedEvent{
		DiscordID: "123456789012345678", GuildID: "876543210987654321",
	}))
}

func TestLinkEventPublisher_WrapsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobRepository(ctrl)
	jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	p, err := NewLinkEventPublisher(LinkEventPublisherOptions{Jobs: jobs})
	require.NoError(t, err)
	err = p.PublishUnlinked(context.Background(), model.UnlinkedEvent{DiscordID: "123456789012345678"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue unlinked event")
}
