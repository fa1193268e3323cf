package repository

import (
	"context"
	"regexp"
	"testing"

	"inkwell/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{Content: "Nice post!", PostID: 1, UserID: 1, Status: models.CommentStatusPending}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, comment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListForPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "comments" JOIN users ON users.id = comments.user_id AND users.deleted_at IS NULL`)).
		WithArgs(1, models.CommentStatusHidden).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "user_id", "post_id"}).
			AddRow(1, "Comment 1", 101, 1).
			AddRow(2, "Comment 2", 102, 1))

	// Preload User for each comment
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "users" WHERE "users"."id"`)).
		WithArgs(101, 102).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).
			AddRow(101, "user101").
			AddRow(102, "user102"))

	comments, err := repo.ListForPost(ctx, 1, false)
	assert.NoError(t, err)
	assert.Len(t, comments, 2)
	assert.Equal(t, "Comment 1", comments[0].Content)
	assert.Equal(t, "user101", comments[0].User.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_SoftDelete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "comments" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	err := repo.SoftDelete(ctx, []uint{1, 2, 3})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_SoftDelete_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	err := repo.SoftDelete(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ParentLink(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "parent_id","post_id" FROM "comments" WHERE id = $1`)).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"parent_id", "post_id"}).AddRow(2, 9))

	parentID, postID, err := repo.ParentLink(ctx, 5)
	assert.NoError(t, err)
	require.NotNil(t, parentID)
	assert.Equal(t, uint(2), *parentID)
	assert.Equal(t, uint(9), postID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
