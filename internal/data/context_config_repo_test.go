package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trizly/lumi-link/internal/domain/model"
	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/testutil"
)

func TestContextConfigRepo_UpsertGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewContextConfigRepo(db, NewFixedTimeProvider(testutil.TestTime()))
	ctx := context.Background()

	_, err := repo.Get(ctx, "222222222222222222")
	assert.True(t, apperrors.IsNotFound(err))

	cfg := model.DefaultContextConfig("222222222222222222")
	cfg.VerifiedRoleID = "333333333333333333"
	cfg.NameSyncEnabled = true
	cfg.NameSyncFormat = model.NameSyncSmart
	require.NoError(t, repo.Upsert(ctx, &cfg))

	got, err := repo.Get(ctx, cfg.ContextID)
	require.NoError(t, err)
	assert.Equal(t, "333333333333333333", got.VerifiedRoleID)
	assert.True(t, got.VerifiedRoleEnabled)
	assert.Equal(t, model.NameSyncSmart, got.NameSyncFormat)

	cfg.VerifiedRoleEnabled = false
	require.NoError(t, repo.Upsert(ctx, &cfg))

	other := model.DefaultContextConfig("111111111111111111")
	require.NoError(t, repo.Upsert(ctx, &other))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "111111111111111111", all[0].ContextID)
	assert.False(t, all[1].VerifiedRoleEnabled)
}

func TestContextConfigRepo_UpsertRequiresContext(t *testing.T) {
	repo := NewContextConfigRepo(nil, nil)
	err := repo.Upsert(context.Background(), &model.ContextConfig{})
	assert.True(t, apperrors.IsValidation(err))
}
