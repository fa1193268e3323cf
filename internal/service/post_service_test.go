package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

func newTestPostService(db *gorm.DB) *PostService {
	isAdmin := func(ctx context.Context, userID uint) (bool, error) {
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}
	return NewPostService(
		repository.NewPostRepository(db),
		repository.NewTagRepository(db),
		repository.NewCommentRepository(db),
		isAdmin,
		nil,
	)
}

func TestCreatePost_SlugCollision(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "slug_author")

	first, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Hello World", Content: "a", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)

	second, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Hello World", Content: "b", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", second.Slug)

	third, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Hello World", Content: "c", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-3", third.Slug)
}

func TestCreatePost_Tags(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "tag_author")

	post, err := svc.CreatePost(ctx, CreatePostInput{
		UserID: author.ID, Title: "Tagged", Content: "x", Published: true,
		Tags: []string{"Go", "Databases"},
	})
	require.NoError(t, err)
	assert.Len(t, post.Tags, 2)

	// Reusing a tag name attaches the existing row instead of duplicating it.
	again, err := svc.CreatePost(ctx, CreatePostInput{
		UserID: author.ID, Title: "Tagged Again", Content: "y", Published: true,
		Tags: []string{"Go"},
	})
	require.NoError(t, err)
	require.Len(t, again.Tags, 1)
	assert.Equal(t, post.Tags[0].ID, again.Tags[0].ID)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestGetPost_DraftVisibility(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "draft_author")
	stranger := createTestUser(t, db, "draft_stranger")

	draft, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Draft", Content: "wip"})
	require.NoError(t, err)

	_, err = svc.GetPost(ctx, draft.ID, stranger.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	got, err := svc.GetPost(ctx, draft.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = svc.GetPostBySlug(ctx, draft.Slug, stranger.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestUpdatePost_PatchSemantics(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "patch_author")
	stranger := createTestUser(t, db, "patch_stranger")

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Original", Content: "body", Published: true})
	require.NoError(t, err)

	t.Run("stranger forbidden", func(t *testing.T) {
		newTitle := "Hijacked"
		_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: stranger.ID, PostID: post.ID, Title: &newTitle})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})

	t.Run("absent fields untouched", func(t *testing.T) {
		off := false
		updated, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: author.ID, PostID: post.ID, CommentsEnabled: &off})
		require.NoError(t, err)
		assert.Equal(t, "Original", updated.Title)
		assert.Equal(t, "body", updated.Content)
		assert.False(t, updated.CommentsEnabled)
		assert.True(t, updated.Published)
	})
}

func TestDeletePost_AuthorOrAdmin(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "delpost_author")
	stranger := createTestUser(t, db, "delpost_stranger")
	admin := createTestUser(t, db, "delpost_admin")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)

	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Victim", Content: "x", Published: true})
	require.NoError(t, err)

	err = svc.DeletePost(ctx, stranger.ID, post.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	require.NoError(t, svc.DeletePost(ctx, admin.ID, post.ID))
	_, err = svc.GetPost(ctx, post.ID, author.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestListUserPosts_FiltersDrafts(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "list_author")
	stranger := createTestUser(t, db, "list_stranger")

	_, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Public", Content: "x", Published: true})
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Hidden Draft", Content: "y"})
	require.NoError(t, err)

	mine, err := svc.ListUserPosts(ctx, author.ID, author.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	theirs, err := svc.ListUserPosts(ctx, author.ID, stranger.ID, 20, 0)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestRecordView(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestPostService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "view_author")
	post, err := svc.CreatePost(ctx, CreatePostInput{UserID: author.ID, Title: "Viewed", Content: "x", Published: true})
	require.NoError(t, err)

	require.NoError(t, svc.RecordView(ctx, post.ID, 7))
	require.NoError(t, svc.RecordView(ctx, post.ID, 0))

	got, err := svc.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Views)
}
