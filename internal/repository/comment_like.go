package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ErrAlreadyLiked is returned when the (user, comment) like pair already exists.
var ErrAlreadyLiked = errors.New("comment already liked")

// ErrNotLiked is returned when unliking a pair that does not exist.
var ErrNotLiked = errors.New("comment not liked")

// CommentLikeRepository defines storage operations for comment likes.
// Counts are always recomputed from rows; nothing is cached on the comment.
type CommentLikeRepository interface {
	Create(ctx context.Context, like *models.CommentLike) error
	Delete(ctx context.Context, userID, commentID uint) error
	Exists(ctx context.Context, userID, commentID uint) (bool, error)
	Count(ctx context.Context, commentID uint) (int64, error)
	CountForComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error)
}

type commentLikeRepository struct {
	db *gorm.DB
}

// NewCommentLikeRepository creates a new CommentLikeRepository
func NewCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &commentLikeRepository{db: db}
}

func (r *commentLikeRepository) Create(ctx context.Context, like *models.CommentLike) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return err
	}
	return nil
}

func (r *commentLikeRepository) Delete(ctx context.Context, userID, commentID uint) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotLiked
	}
	return nil
}

func (r *commentLikeRepository) Exists(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	return count > 0, err
}

func (r *commentLikeRepository) Count(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}

// CountForComments returns like counts for a whole page of comments in one
// grouped query. Comments without likes are simply absent from the map.
func (r *commentLikeRepository) CountForComments(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(commentIDs))
	if len(commentIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CommentID uint
		N         int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Select("comment_id, COUNT(*) as n").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CommentID] = row.N
	}
	return counts, nil
}
