package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommenterStatsRepository maintains the denormalized per-(post author,
// commenter) comment counters. All writes are atomic upserts or conditional
// decrements so concurrent commenters never lose updates; callers run them in
// the same transaction as the comment write they account for.
type CommenterStatsRepository interface {
	Record(ctx context.Context, postAuthorID, commenterID uint) error
	RemoveN(ctx context.Context, postAuthorID, commenterID uint, n int) error
	Get(ctx context.Context, postAuthorID, commenterID uint) (*models.CommenterStats, error)
	IsTopCommenter(ctx context.Context, postAuthorID, commenterID uint) (bool, error)
	TopCommenters(ctx context.Context, postAuthorID uint, commenterIDs []uint) (map[uint]bool, error)
	WithTx(tx *gorm.DB) CommenterStatsRepository
}

type commenterStatsRepository struct {
	db *gorm.DB
}

// NewCommenterStatsRepository creates a new CommenterStatsRepository
func NewCommenterStatsRepository(db *gorm.DB) CommenterStatsRepository {
	return &commenterStatsRepository{db: db}
}

func (r *commenterStatsRepository) WithTx(tx *gorm.DB) CommenterStatsRepository {
	return &commenterStatsRepository{db: tx}
}

// Record upserts-and-increments the counter for one new comment. An author
// commenting on their own post never accrues standing.
func (r *commenterStatsRepository) Record(ctx context.Context, postAuthorID, commenterID uint) error {
	if commenterID == postAuthorID {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "post_author_id"}, {Name: "commenter_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"comment_count":   gorm.Expr("commenter_stats.comment_count + 1"),
				"last_comment_at": now,
			}),
		}).
		Create(&models.CommenterStats{
			PostAuthorID:  postAuthorID,
			CommenterID:   commenterID,
			CommentCount:  1,
			LastCommentAt: now,
		}).Error
}

// RemoveN decrements the counter by n soft-deleted comments and removes the
// row entirely once the count reaches zero.
func (r *commenterStatsRepository) RemoveN(ctx context.Context, postAuthorID, commenterID uint, n int) error {
	if commenterID == postAuthorID || n <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.CommenterStats{}).
		Where("post_author_id = ? AND commenter_id = ?", postAuthorID, commenterID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - ?", n))
	if res.Error != nil {
		return res.Error
	}
	return r.db.WithContext(ctx).
		Where("post_author_id = ? AND commenter_id = ? AND comment_count <= 0", postAuthorID, commenterID).
		Delete(&models.CommenterStats{}).Error
}

func (r *commenterStatsRepository) Get(ctx context.Context, postAuthorID, commenterID uint) (*models.CommenterStats, error) {
	var stats models.CommenterStats
	err := r.db.WithContext(ctx).
		Where("post_author_id = ? AND commenter_id = ?", postAuthorID, commenterID).
		First(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *commenterStatsRepository) IsTopCommenter(ctx context.Context, postAuthorID, commenterID uint) (bool, error) {
	if commenterID == postAuthorID {
		return false, nil
	}
	stats, err := r.Get(ctx, postAuthorID, commenterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return stats.IsTop(), nil
}

// TopCommenters resolves the flag for a whole page of commenters in one
// query. Every requested id is present in the result, defaulting to false;
// the post author is excluded from the lookup set.
func (r *commenterStatsRepository) TopCommenters(ctx context.Context, postAuthorID uint, commenterIDs []uint) (map[uint]bool, error) {
	flags := make(map[uint]bool, len(commenterIDs))
	lookup := make([]uint, 0, len(commenterIDs))
	for _, id := range commenterIDs {
		if id == postAuthorID {
			continue
		}
		if _, seen := flags[id]; !seen {
			flags[id] = false
			lookup = append(lookup, id)
		}
	}
	if len(lookup) == 0 {
		return flags, nil
	}

	var topIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.CommenterStats{}).
		Where("post_author_id = ? AND commenter_id IN ? AND comment_count >= ?",
			postAuthorID, lookup, models.TopCommenterThreshold).
		Pluck("commenter_id", &topIDs).Error
	if err != nil {
		return nil, err
	}
	for _, id := range topIDs {
		flags[id] = true
	}
	return flags, nil
}
