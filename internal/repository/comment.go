package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines storage operations for comments. Soft-deleted
// comments are excluded from every read except ParentLink, which must stay
// able to traverse parent pointers regardless of deletion state.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ParentLink(ctx context.Context, id uint) (parentID *uint, postID uint, err error)
	ListForPost(ctx context.Context, postID uint, includeHidden bool) ([]*models.Comment, error)
	ListChildren(ctx context.Context, parentIDs []uint) ([]*models.Comment, error)
	SoftDelete(ctx context.Context, ids []uint) error
	ListForModeration(ctx context.Context, postID uint, status *models.CommentStatus) ([]*models.Comment, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*models.Comment, int64, error)
	Update(ctx context.Context, comment *models.Comment) error
	CountForPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{db: tx}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ParentLink returns the parent pointer and owning post of a comment without
// loading the full row. It reads through soft deletes so that depth
// computation stays valid even while a cascade is in flight.
func (r *commentRepository) ParentLink(ctx context.Context, id uint) (*uint, uint, error) {
	var row struct {
		ParentID *uint
		PostID   uint
	}
	err := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Comment{}).
		Select("parent_id", "post_id").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, 0, err
	}
	return row.ParentID, row.PostID, nil
}

// ListForPost returns every live comment of a post in one query, ordered
// oldest-first, with authors preloaded. Comments by deactivated users are
// filtered out in SQL; hidden comments are filtered unless includeHidden is
// set (post-author view). The tree is assembled in memory by the service.
func (r *commentRepository) ListForPost(ctx context.Context, postID uint, includeHidden bool) ([]*models.Comment, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = comments.user_id AND users.deleted_at IS NULL").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC")
	if !includeHidden {
		q = q.Where("comments.status <> ?", models.CommentStatusHidden)
	}

	var comments []*models.Comment
	err := q.Find(&comments).Error
	return comments, err
}

// ListChildren returns the live direct replies of the given comments,
// selecting only the columns the soft-delete cascade needs.
func (r *commentRepository) ListChildren(ctx context.Context, parentIDs []uint) ([]*models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var children []*models.Comment
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "parent_id", "post_id").
		Where("parent_id IN ?", parentIDs).
		Find(&children).Error
	return children, err
}

// SoftDelete marks the given comments deleted. Rows are never hard-deleted.
func (r *commentRepository) SoftDelete(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

// ListForModeration returns all live comments of a post (hidden included)
// with their reports attached, optionally filtered by moderation status.
func (r *commentRepository) ListForModeration(ctx context.Context, postID uint, status *models.CommentStatus) ([]*models.Comment, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("Reports").
		Preload("Reports.Reporter").
		Where("post_id = ?", postID).
		Order("created_at ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var comments []*models.Comment
	err := q.Find(&comments).Error
	return comments, err
}

// ListRecent returns a page of top-level live comments across published
// posts, newest first, along with the total count for pagination.
func (r *commentRepository) ListRecent(ctx context.Context, limit, offset int) ([]*models.Comment, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Joins("JOIN posts ON posts.id = comments.post_id AND posts.published = true AND posts.deleted_at IS NULL").
		Joins("JOIN users ON users.id = comments.user_id AND users.deleted_at IS NULL").
		Where("comments.parent_id IS NULL").
		Where("comments.status <> ?", models.CommentStatusHidden)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*models.Comment
	err := base.
		Preload("User").
		Preload("Post").
		Order("comments.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, total, err
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

// CountForPosts returns live comment counts grouped by post.
func (r *commentRepository) CountForPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		PostID uint
		N      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) as n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}
