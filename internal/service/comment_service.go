package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

const maxCommentLen = 10000

// CommentEvents receives best-effort notifications about comment activity.
// Implementations must never fail the calling request; delivery problems are
// logged and dropped.
type CommentEvents interface {
	CommentCreated(ctx context.Context, post *models.Post, comment *models.Comment, parent *models.Comment)
	CommentModerated(ctx context.Context, post *models.Post, comment *models.Comment)
}

// CommentService implements the threaded comment workflows: creating comments
// and replies, editing, liking, and the soft-delete cascade. The commenter
// statistics ledger is updated in the same database transaction as the
// comment write it accounts for.
type CommentService struct {
	db          *gorm.DB
	commentRepo repository.CommentRepository
	likeRepo    repository.CommentLikeRepository
	statsRepo   repository.CommenterStatsRepository
	postRepo    repository.PostRepository
	events      CommentEvents
	invalidate  func(ctx context.Context, postSlug string)
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	db *gorm.DB,
	commentRepo repository.CommentRepository,
	likeRepo repository.CommentLikeRepository,
	statsRepo repository.CommenterStatsRepository,
	postRepo repository.PostRepository,
	events CommentEvents,
	invalidate func(ctx context.Context, postSlug string),
) *CommentService {
	return &CommentService{
		db:          db,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		statsRepo:   statsRepo,
		postRepo:    postRepo,
		events:      events,
		invalidate:  invalidate,
	}
}

// commentByID fetches a comment or returns a NotFound AppError. Soft-deleted
// comments are invisible here, so a deleted subtree reads like its rows were
// never written.
func (s *CommentService) commentByID(ctx context.Context, id uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) postByID(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	return post, nil
}

// Depth returns the number of edges between the given comment and the root of
// its thread. The walk is capped at MaxThreadDepth; anything at or beyond the
// cap reports MaxThreadDepth, which is all callers need to reject a reply.
func (s *CommentService) Depth(ctx context.Context, commentID uint) (int, error) {
	depth := 0
	current := commentID
	for depth < models.MaxThreadDepth {
		parentID, _, err := s.commentRepo.ParentLink(ctx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, models.NewNotFoundError("Comment", current)
			}
			return 0, err
		}
		if parentID == nil {
			break
		}
		depth++
		current = *parentID
	}
	return depth, nil
}

func validateCommentContent(content string) error {
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// CreateComment creates a top-level comment or, when ParentID is set, a reply.
// Replies are rejected once the parent already sits at the maximum thread
// depth. The insert and the commenter ledger upsert commit atomically.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	post, err := s.postByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.Published && post.UserID != in.UserID {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}
	if !post.CommentsEnabled {
		return nil, models.NewForbiddenError("Comments are disabled for this post")
	}

	var parent *models.Comment
	if in.ParentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Parent comment", *in.ParentID)
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewNotFoundMessageError("Parent comment does not belong to this post")
		}
		depth, err := s.Depth(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		if depth >= models.MaxThreadDepth {
			return nil, models.NewValidationError("Maximum reply depth reached")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		PostID:   in.PostID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Status:   models.CommentStatusPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.commentRepo.WithTx(tx).Create(ctx, comment); err != nil {
			return err
		}
		return s.statsRepo.WithTx(tx).Record(ctx, post.UserID, in.UserID)
	})
	if err != nil {
		return nil, err
	}

	kind := "comment"
	if in.ParentID != nil {
		kind = "reply"
	}
	middleware.CommentsCreated.WithLabelValues(kind).Inc()

	if s.invalidate != nil {
		s.invalidate(ctx, post.Slug)
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.CommentCreated(ctx, post, created, parent)
	}
	return created, nil
}

// UpdateComment edits a comment's content. Only the comment author may edit;
// the returned comment carries a freshly computed like count.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	updated.LikesCount, err = s.likeRepo.Count(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	if s.invalidate != nil {
		if post, perr := s.postByID(ctx, comment.PostID); perr == nil {
			s.invalidate(ctx, post.Slug)
		}
	}
	return updated, nil
}

// DeleteComment soft-deletes a comment together with its entire reply subtree
// in a single transaction. The commenter ledger is decremented once per
// deleted comment, grouped by commenter, so the counters stay consistent with
// the rows that remain visible. Returns the number of comments removed.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (int, error) {
	comment, err := s.commentByID(ctx, in.CommentID)
	if err != nil {
		return 0, err
	}
	if comment.UserID != in.UserID {
		return 0, models.NewForbiddenError("You can only delete your own comments")
	}
	post, err := s.postByID(ctx, comment.PostID)
	if err != nil {
		return 0, err
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentTx := s.commentRepo.WithTx(tx)

		ids := []uint{comment.ID}
		perCommenter := map[uint]int{comment.UserID: 1}

		// Breadth-first over the reply subtree. Depth is bounded, so the
		// number of round trips is bounded too.
		frontier := []uint{comment.ID}
		for level := 0; len(frontier) > 0 && level < models.MaxThreadDepth; level++ {
			children, err := commentTx.ListChildren(ctx, frontier)
			if err != nil {
				return err
			}
			frontier = frontier[:0]
			for _, child := range children {
				ids = append(ids, child.ID)
				perCommenter[child.UserID]++
				frontier = append(frontier, child.ID)
			}
		}

		if err := commentTx.SoftDelete(ctx, ids); err != nil {
			return err
		}

		statsTx := s.statsRepo.WithTx(tx)
		for commenterID, n := range perCommenter {
			if err := statsTx.RemoveN(ctx, post.UserID, commenterID, n); err != nil {
				return err
			}
		}
		removed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	middleware.CommentCascadeDeletes.Observe(float64(removed))
	if s.invalidate != nil {
		s.invalidate(ctx, post.Slug)
	}
	return removed, nil
}

// LikeComment records a like and returns the new like count. Liking a comment
// twice is a conflict.
func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) (int64, error) {
	comment, err := s.commentByID(ctx, commentID)
	if err != nil {
		return 0, err
	}

	like := &models.CommentLike{UserID: userID, CommentID: commentID}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrAlreadyLiked) {
			return 0, models.NewConflictError("You have already liked this comment")
		}
		return 0, err
	}

	if s.invalidate != nil {
		if post, perr := s.postByID(ctx, comment.PostID); perr == nil {
			s.invalidate(ctx, post.Slug)
		}
	}
	return s.likeRepo.Count(ctx, commentID)
}

// UnlikeComment removes a like and returns the new like count. Unliking a
// comment that was never liked is a conflict.
func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) (int64, error) {
	comment, err := s.commentByID(ctx, commentID)
	if err != nil {
		return 0, err
	}

	if err := s.likeRepo.Delete(ctx, userID, commentID); err != nil {
		if errors.Is(err, repository.ErrNotLiked) {
			return 0, models.NewConflictError("You have not liked this comment")
		}
		return 0, err
	}

	if s.invalidate != nil {
		if post, perr := s.postByID(ctx, comment.PostID); perr == nil {
			s.invalidate(ctx, post.Slug)
		}
	}
	return s.likeRepo.Count(ctx, commentID)
}
