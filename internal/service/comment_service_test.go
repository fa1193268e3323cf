package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Tag{},
		&models.Comment{},
		&models.CommentLike{},
		&models.CommenterStats{},
		&models.CommentReport{},
		&models.Follow{},
		&models.Notification{},
	))
	return db
}

func newTestCommentService(db *gorm.DB) *CommentService {
	return NewCommentService(
		db,
		repository.NewCommentRepository(db),
		repository.NewCommentLikeRepository(db),
		repository.NewCommenterStatsRepository(db),
		repository.NewPostRepository(db),
		nil,
		nil,
	)
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, author *models.User, mutate ...func(*models.Post)) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:           "A post",
		Slug:            fmt.Sprintf("a-post-%s-%d", author.Username, author.ID),
		Content:         "Body",
		UserID:          author.ID,
		Published:       true,
		CommentsEnabled: true,
	}
	for _, m := range mutate {
		m(post)
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestCreateComment_Validation(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	post := createTestPost(t, db, author)

	t.Run("empty content", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: 9999, Content: "hi"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})
}

func TestCreateComment_PostGates(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "gate_author")
	reader := createTestUser(t, db, "gate_reader")

	t.Run("comments disabled", func(t *testing.T) {
		post := createTestPost(t, db, author, func(p *models.Post) {
			p.Slug = "disabled-post"
			p.CommentsEnabled = false
		})
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: reader.ID, PostID: post.ID, Content: "hi"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})

	t.Run("draft hidden from non-author", func(t *testing.T) {
		post := createTestPost(t, db, author, func(p *models.Post) {
			p.Slug = "draft-post"
			p.Published = false
		})
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: reader.ID, PostID: post.ID, Content: "hi"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)

		// The author may still comment on their own draft.
		_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "note to self"})
		assert.NoError(t, err)
	})

	t.Run("parent from another post", func(t *testing.T) {
		postA := createTestPost(t, db, author, func(p *models.Post) { p.Slug = "post-a" })
		postB := createTestPost(t, db, author, func(p *models.Post) { p.Slug = "post-b" })
		parent, err := svc.CreateComment(ctx, CreateCommentInput{UserID: reader.ID, PostID: postA.ID, Content: "on A"})
		require.NoError(t, err)

		_, err = svc.CreateComment(ctx, CreateCommentInput{
			UserID: reader.ID, PostID: postB.ID, ParentID: &parent.ID, Content: "wrong post",
		})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeNotFound, appErr.Code)
	})
}

func TestCreateComment_DepthGuard(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "depth_author")
	commenter := createTestUser(t, db, "depth_commenter")
	post := createTestPost(t, db, author)

	// Build a chain: root at depth 0, replies down to depth 5.
	parent, err := svc.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "root"})
	require.NoError(t, err)
	for depth := 1; depth <= models.MaxThreadDepth; depth++ {
		parent, err = svc.CreateComment(ctx, CreateCommentInput{
			UserID:   commenter.ID,
			PostID:   post.ID,
			ParentID: &parent.ID,
			Content:  fmt.Sprintf("reply at depth %d", depth),
		})
		require.NoError(t, err, "reply at depth %d should be accepted", depth)
	}

	// parent now sits at the maximum depth; one more level is rejected.
	_, err = svc.CreateComment(ctx, CreateCommentInput{
		UserID:   commenter.ID,
		PostID:   post.ID,
		ParentID: &parent.ID,
		Content:  "one too deep",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)

	depth, err := svc.Depth(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MaxThreadDepth, depth)
}

func TestCreateComment_RecordsCommenterStats(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	statsRepo := repository.NewCommenterStatsRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "stats_author")
	commenter := createTestUser(t, db, "stats_commenter")
	post := createTestPost(t, db, author)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID: commenter.ID, PostID: post.ID, Content: fmt.Sprintf("comment %d", i),
		})
		require.NoError(t, err)
	}

	stats, err := statsRepo.Get(ctx, author.ID, commenter.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CommentCount)

	// Self-comments never accrue standing.
	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "own post"})
	require.NoError(t, err)
	_, err = statsRepo.Get(ctx, author.ID, author.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateComment_AuthorOnly(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "edit_author")
	commenter := createTestUser(t, db, "edit_commenter")
	other := createTestUser(t, db, "edit_other")
	post := createTestPost(t, db, author)

	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "original"})
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, UpdateCommentInput{UserID: other.ID, CommentID: comment.ID, Content: "hijack"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	updated, err := svc.UpdateComment(ctx, UpdateCommentInput{UserID: commenter.ID, CommentID: comment.ID, Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
}

func TestDeleteComment_CascadesAndDecrementsStats(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	statsRepo := repository.NewCommenterStatsRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "del_author")
	alice := createTestUser(t, db, "del_alice")
	bob := createTestUser(t, db, "del_bob")
	post := createTestPost(t, db, author)

	// alice: root + grandchild; bob: middle reply + a separate top-level
	// comment that must survive the cascade.
	root, err := svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: post.ID, Content: "root"})
	require.NoError(t, err)
	mid, err := svc.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, ParentID: &root.ID, Content: "mid"})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: alice.ID, PostID: post.ID, ParentID: &mid.ID, Content: "leaf"})
	require.NoError(t, err)
	survivor, err := svc.CreateComment(ctx, CreateCommentInput{UserID: bob.ID, PostID: post.ID, Content: "unrelated"})
	require.NoError(t, err)

	removed, err := svc.DeleteComment(ctx, DeleteCommentInput{UserID: alice.ID, CommentID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	var liveCount int64
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&liveCount).Error)
	assert.Equal(t, int64(1), liveCount)

	_, err = svc.commentByID(ctx, survivor.ID)
	assert.NoError(t, err)

	// alice lost both her comments, so her row is gone; bob keeps the one
	// comment outside the subtree.
	_, err = statsRepo.Get(ctx, author.ID, alice.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	bobStats, err := statsRepo.Get(ctx, author.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bobStats.CommentCount)
}

func TestDeleteComment_OwnerOnly(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "delown_author")
	commenter := createTestUser(t, db, "delown_commenter")
	post := createTestPost(t, db, author)

	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "mine"})
	require.NoError(t, err)

	_, err = svc.DeleteComment(ctx, DeleteCommentInput{UserID: author.ID, CommentID: comment.ID})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeForbidden, appErr.Code)
}

func TestLikeUnlikeComment(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	svc := newTestCommentService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "like_author")
	liker := createTestUser(t, db, "like_liker")
	post := createTestPost(t, db, author)

	comment, err := svc.CreateComment(ctx, CreateCommentInput{UserID: author.ID, PostID: post.ID, Content: "likeable"})
	require.NoError(t, err)

	count, err := svc.LikeComment(ctx, liker.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.LikeComment(ctx, liker.ID, comment.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	count, err = svc.UnlikeComment(ctx, liker.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	_, err = svc.UnlikeComment(ctx, liker.ID, comment.ID)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}
