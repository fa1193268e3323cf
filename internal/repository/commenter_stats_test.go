package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCommenterStatsRepository_Record(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "commenter_stats"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Record(ctx, 1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_Record_SelfComment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)

	// Authors never accrue standing on their own posts, so no SQL runs.
	err := repo.Record(context.Background(), 7, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_RemoveN(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "commenter_stats" SET "comment_count"=comment_count - `)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "commenter_stats"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.RemoveN(ctx, 1, 2, 3)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_RemoveN_Noop(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)
	ctx := context.Background()

	assert.NoError(t, repo.RemoveN(ctx, 1, 1, 3))
	assert.NoError(t, repo.RemoveN(ctx, 1, 2, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_IsTopCommenter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)
	ctx := context.Background()

	t.Run("NoRow", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "commenter_stats" WHERE post_author_id = $1 AND commenter_id = $2`)).
			WithArgs(1, 2, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		top, err := repo.IsTopCommenter(ctx, 1, 2)
		assert.NoError(t, err)
		assert.False(t, top)
	})

	t.Run("AboveThreshold", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM "commenter_stats" WHERE post_author_id = $1 AND commenter_id = $2`)).
			WithArgs(1, 2, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "post_author_id", "commenter_id", "comment_count"}).
				AddRow(1, 1, 2, 6))

		top, err := repo.IsTopCommenter(ctx, 1, 2)
		assert.NoError(t, err)
		assert.True(t, top)
	})

	t.Run("Self", func(t *testing.T) {
		top, err := repo.IsTopCommenter(ctx, 4, 4)
		assert.NoError(t, err)
		assert.False(t, top)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_TopCommenters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "commenter_id" FROM "commenter_stats"`)).
		WillReturnRows(sqlmock.NewRows([]string{"commenter_id"}).AddRow(7))

	// Author id 1 and the duplicate 7 are both collapsed out of the lookup.
	flags, err := repo.TopCommenters(ctx, 1, []uint{7, 8, 1, 7})
	assert.NoError(t, err)
	assert.Equal(t, map[uint]bool{7: true, 8: false}, flags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommenterStatsRepository_TopCommenters_EmptyLookup(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommenterStatsRepository(db)

	flags, err := repo.TopCommenters(context.Background(), 1, []uint{1})
	assert.NoError(t, err)
	assert.Empty(t, flags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
