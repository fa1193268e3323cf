package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

func TestFollowService(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := NewFollowService(
		repository.NewFollowRepository(db),
		repository.NewUserRepository(db),
		nil,
	)
	ctx := context.Background()

	alice := createTestUser(t, db, "follow_alice")
	bob := createTestUser(t, db, "follow_bob")
	carol := createTestUser(t, db, "follow_carol")

	t.Run("self follow rejected", func(t *testing.T) {
		err := svc.Follow(ctx, alice.ID, alice.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("unknown followee", func(t *testing.T) {
		err := svc.Follow(ctx, alice.ID, 9999)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})

	t.Run("follow and counts", func(t *testing.T) {
		require.NoError(t, svc.Follow(ctx, alice.ID, bob.ID))
		require.NoError(t, svc.Follow(ctx, carol.ID, bob.ID))

		followers, following, err := svc.Counts(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), followers)
		assert.Equal(t, int64(0), following)

		ok, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		list, err := svc.Followers(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("double follow conflicts", func(t *testing.T) {
		err := svc.Follow(ctx, alice.ID, bob.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("unfollow", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))
		err := svc.Unfollow(ctx, alice.ID, bob.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})
}
