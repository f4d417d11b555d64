package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/testutil"
)

const (
	testDiscordID = "123456789012345678"
	testRobloxID  = "987654321"
)

func TestIdentityLinkRepo_UpsertAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tp := NewFixedTimeProvider(testutil.TestTime())
	repo := NewIdentityLinkRepo(db, tp)
	ctx := context.Background()

	link, err := repo.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID:      testDiscordID,
		ExternalID:     testRobloxID,
		ExternalHandle: "builderman",
	})
	require.NoError(t, err)
	assert.Equal(t, testDiscordID, link.SubjectID)
	assert.Equal(t, "builderman", link.ExternalHandle)
	assert.True(t, link.LinkedAt.Equal(testutil.TestTime()))
	assert.False(t, link.HasAccessToken())

	got, err := repo.GetBySubject(ctx, testDiscordID)
	require.NoError(t, err)
	assert.Equal(t, testRobloxID, got.ExternalID)

	byExternal, err := repo.GetByExternalID(ctx, testRobloxID)
	require.NoError(t, err)
	assert.Equal(t, testDiscordID, byExternal.SubjectID)
}

func TestIdentityLinkRepo_UpsertKeepsTokensWhenOmitted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewIdentityLinkRepo(db, NewFixedTimeProvider(testutil.TestTime()))
	ctx := context.Background()

	expiry := testutil.TestTime().Add(7 * 24 * time.Hour)
	_, err := repo.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID:      testDiscordID,
		ExternalID:     testRobloxID,
		ExternalHandle: "builderman",
		Tokens:         &model.LinkTokens{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry},
	})
	require.NoError(t, err)

	relinked, err := repo.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID:      testDiscordID,
		ExternalID:     "111",
		ExternalHandle: "other_account",
	})
	require.NoError(t, err)
	assert.Equal(t, "111", relinked.ExternalID)
	require.True(t, relinked.HasAccessToken())
	assert.Equal(t, "access", *relinked.AccessToken)
	require.NotNil(t, relinked.TokenExpiry)
	assert.True(t, relinked.TokenExpiry.Equal(expiry))
}

func TestIdentityLinkRepo_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewIdentityLinkRepo(db, nil)

	_, err := repo.GetBySubject(context.Background(), testDiscordID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.DeleteBySubject(context.Background(), testDiscordID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityLinkRepo_DeleteReturnsRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewIdentityLinkRepo(db, nil)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID: testDiscordID, ExternalID: testRobloxID, ExternalHandle: "builderman",
	})
	require.NoError(t, err)

	removed, err := repo.DeleteBySubject(ctx, testDiscordID)
	require.NoError(t, err)
	assert.Equal(t, testRobloxID, removed.ExternalID)

	_, err = repo.GetBySubject(ctx, testDiscordID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityLinkRepo_UpdateTokens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tp := NewFixedTimeProvider(testutil.TestTime())
	repo := NewIdentityLinkRepo(db, tp)
	ctx := context.Background()

	ok, err := repo.UpdateTokens(ctx, testDiscordID, model.LinkTokens{AccessToken: "a"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Upsert(ctx, model.UpsertIdentityLinkRequest{
		SubjectID:      testDiscordID,
		ExternalID:     testRobloxID,
		ExternalHandle: "builderman",
		Tokens:         &model.LinkTokens{AccessToken: "old", RefreshToken: "r1"},
	})
	require.NoError(t, err)

	expiry := testutil.TestTime().Add(time.Hour)
	ok, err = repo.UpdateTokens(ctx, testDiscordID, model.LinkTokens{AccessToken: "new", Expiry: expiry})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetBySubject(ctx, testDiscordID)
	require.NoError(t, err)
	assert.Equal(t, "new", *got.AccessToken)
	assert.Equal(t, "r1", *got.RefreshToken)
	assert.False(t, got.TokenExpired(testutil.TestTime()))
}

func TestIdentityLinkRepo_UpsertRequiresSubject(t *testing.T) {
	repo := NewIdentityLinkRepo(nil, nil)
	_, err := repo.Upsert(context.Background(), model.UpsertIdentityLinkRequest{ExternalID: testRobloxID})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
