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

func newTestModerationService(db *gorm.DB) *ModerationService {
	isAdmin := func(ctx context.Context, userID uint) (bool, error) {
		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return false, err
		}
		return user.IsAdmin, nil
	}
	return NewModerationService(
		repository.NewCommentRepository(db),
		repository.NewCommentReportRepository(db),
		repository.NewPostRepository(db),
		isAdmin,
		nil,
		nil,
	)
}

func TestModerateComment(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	comments := newTestCommentService(db)
	mod := newTestModerationService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "mod_author")
	commenter := createTestUser(t, db, "mod_commenter")
	post := createTestPost(t, db, author)

	comment, err := comments.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "moderate me"})
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusPending, comment.Status)

	t.Run("only post author may moderate", func(t *testing.T) {
		_, err := mod.ModerateComment(ctx, ModerateCommentInput{ActorID: commenter.ID, CommentID: comment.ID, Action: "approve"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})

	t.Run("unknown action rejected", func(t *testing.T) {
		_, err := mod.ModerateComment(ctx, ModerateCommentInput{ActorID: author.ID, CommentID: comment.ID, Action: "promote"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("approve then hide", func(t *testing.T) {
		approved, err := mod.ModerateComment(ctx, ModerateCommentInput{ActorID: author.ID, CommentID: comment.ID, Action: "approve"})
		require.NoError(t, err)
		assert.Equal(t, models.CommentStatusApproved, approved.Status)

		hiddenC, err := mod.ModerateComment(ctx, ModerateCommentInput{ActorID: author.ID, CommentID: comment.ID, Action: "hide"})
		require.NoError(t, err)
		assert.Equal(t, models.CommentStatusHidden, hiddenC.Status)

		// Hidden comments disappear from the public thread.
		tree, err := comments.ListThread(ctx, 0, post.ID)
		require.NoError(t, err)
		assert.Empty(t, tree)
	})
}

func TestModerationQueue(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	comments := newTestCommentService(db)
	mod := newTestModerationService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "queue_author")
	commenter := createTestUser(t, db, "queue_commenter")
	post := createTestPost(t, db, author)

	c1, err := comments.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "one"})
	require.NoError(t, err)
	_, err = comments.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "two"})
	require.NoError(t, err)
	_, err = mod.ModerateComment(ctx, ModerateCommentInput{ActorID: author.ID, CommentID: c1.ID, Action: "hide"})
	require.NoError(t, err)

	t.Run("author sees everything including hidden", func(t *testing.T) {
		queue, err := mod.ModerationQueue(ctx, author.ID, post.ID, "")
		require.NoError(t, err)
		assert.Len(t, queue, 2)
	})

	t.Run("status filter", func(t *testing.T) {
		queue, err := mod.ModerationQueue(ctx, author.ID, post.ID, "hidden")
		require.NoError(t, err)
		require.Len(t, queue, 1)
		assert.Equal(t, c1.ID, queue[0].ID)

		_, err = mod.ModerationQueue(ctx, author.ID, post.ID, "bogus")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := mod.ModerationQueue(ctx, commenter.ID, post.ID, "")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})
}

func TestReportAndResolve(t *testing.T) {
	t.Parallel()
	db := setupServiceTestDB(t)
	comments := newTestCommentService(db)
	mod := newTestModerationService(db)
	ctx := context.Background()

	author := createTestUser(t, db, "rep_author")
	commenter := createTestUser(t, db, "rep_commenter")
	reporter := createTestUser(t, db, "rep_reporter")
	admin := createTestUser(t, db, "rep_admin")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", admin.ID).Update("is_admin", true).Error)
	post := createTestPost(t, db, author)

	comment, err := comments.CreateComment(ctx, CreateCommentInput{UserID: commenter.ID, PostID: post.ID, Content: "spam"})
	require.NoError(t, err)

	report, err := mod.ReportComment(ctx, ReportCommentInput{ReporterID: reporter.ID, CommentID: comment.ID, Reason: "spam link"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusOpen, report.Status)

	t.Run("duplicate report conflicts", func(t *testing.T) {
		_, err := mod.ReportComment(ctx, ReportCommentInput{ReporterID: reporter.ID, CommentID: comment.ID, Reason: "again"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
	})

	t.Run("reason required", func(t *testing.T) {
		_, err := mod.ReportComment(ctx, ReportCommentInput{ReporterID: reporter.ID, CommentID: comment.ID})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeValidation, appErr.Code)
	})

	t.Run("open reports are admin only", func(t *testing.T) {
		_, err := mod.OpenReports(ctx, reporter.ID, 10, 0)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)

		open, err := mod.OpenReports(ctx, admin.ID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, open, 1)
	})

	t.Run("stranger cannot resolve", func(t *testing.T) {
		err := mod.ResolveReport(ctx, reporter.ID, report.ID)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeForbidden, appErr.Code)
	})

	t.Run("admin resolves", func(t *testing.T) {
		require.NoError(t, mod.ResolveReport(ctx, admin.ID, report.ID))
		open, err := mod.OpenReports(ctx, admin.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, open)
	})
}
