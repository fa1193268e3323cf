package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

func newTestUserService(db *gorm.DB) *UserService {
	return NewUserService(repository.NewUserRepository(db), nil)
}

func createUserWithPassword(t *testing.T, db *gorm.DB, username, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "profile_user")
	taken := createTestUser(t, db, "profile_taken")

	t.Run("username conflict", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Username: taken.Username})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("invalid username rejected", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Username: "x"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{UserID: user.ID, Bio: "hello there"})
		require.NoError(t, err)
		assert.Equal(t, "hello there", updated.Bio)
		assert.Equal(t, "profile_user", updated.Username)
	})
}

func TestChangePassword(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	user := createUserWithPassword(t, db, "pw_user", "OldPassword12!x")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "nope", "NewPassword12!x")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeUnauthorized, appErr.Code)
	})

	t.Run("weak new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "OldPassword12!x", "short")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "OldPassword12!x", "NewPassword12!x"))

		var fresh models.User
		require.NoError(t, db.First(&fresh, user.ID).Error)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(fresh.Password), []byte("NewPassword12!x")))
	})
}

func TestDeactivate(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "deact_user")
	stranger := createTestUser(t, db, "deact_stranger")
	admin := createTestUser(t, db, "deact_admin")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)

	t.Run("stranger forbidden", func(t *testing.T) {
		err := svc.Deactivate(ctx, stranger.ID, user.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})

	t.Run("self deactivation soft-deletes", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, user.ID, user.ID))
		_, err := svc.GetUser(ctx, user.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)

		// Row still exists under the soft delete.
		var count int64
		require.NoError(t, db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("admin deactivates others", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, admin.ID, stranger.ID))
	})
}

func TestSetAdmin(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestUserService(db)
	ctx := context.Background()

	admin := createTestUser(t, db, "sa_admin")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)
	target := createTestUser(t, db, "sa_target")

	_, err := svc.SetAdmin(ctx, target.ID, admin.ID, false)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	promoted, err := svc.SetAdmin(ctx, admin.ID, target.ID, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
}
