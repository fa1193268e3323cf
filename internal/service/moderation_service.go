package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// ModerationService implements the per-post moderation gate: the post author
// approves or hides comments on their own posts, and readers flag comments
// for review. Admins may resolve reports site-wide.
type ModerationService struct {
	commentRepo repository.CommentRepository
	reportRepo  repository.CommentReportRepository
	postRepo    repository.PostRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
	events      CommentEvents
	invalidate  func(ctx context.Context, postSlug string)
}

type ModerateCommentInput struct {
	ActorID   uint
	CommentID uint
	Action    string // "approve" or "hide"
}

type ReportCommentInput struct {
	ReporterID uint
	CommentID  uint
	Reason     string
}

func NewModerationService(
	commentRepo repository.CommentRepository,
	reportRepo repository.CommentReportRepository,
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	events CommentEvents,
	invalidate func(ctx context.Context, postSlug string),
) *ModerationService {
	return &ModerationService{
		commentRepo: commentRepo,
		reportRepo:  reportRepo,
		postRepo:    postRepo,
		isAdmin:     isAdmin,
		events:      events,
		invalidate:  invalidate,
	}
}

func (s *ModerationService) commentWithPost(ctx context.Context, commentID uint) (*models.Comment, *models.Post, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("Comment", commentID)
		}
		return nil, nil, err
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, models.NewNotFoundError("Post", comment.PostID)
		}
		return nil, nil, err
	}
	return comment, post, nil
}

// ModerateComment sets a comment's moderation status. Only the author of the
// post the comment sits on may moderate it. Hiding retracts the comment (and,
// through thread assembly, its subtree) from everyone but the post author.
func (s *ModerationService) ModerateComment(ctx context.Context, in ModerateCommentInput) (*models.Comment, error) {
	var status models.CommentStatus
	switch in.Action {
	case "approve":
		status = models.CommentStatusApproved
	case "hide":
		status = models.CommentStatusHidden
	default:
		return nil, models.NewValidationError("Moderation action must be 'approve' or 'hide'")
	}

	comment, post, err := s.commentWithPost(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.ActorID {
		return nil, models.NewForbiddenError("Only the post author can moderate comments on this post")
	}

	comment.Status = status
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	if s.invalidate != nil {
		s.invalidate(ctx, post.Slug)
	}
	if s.events != nil && comment.UserID != in.ActorID {
		s.events.CommentModerated(ctx, post, comment)
	}
	return comment, nil
}

// ModerationQueue lists comments on one of the actor's posts for review,
// optionally filtered to a single status. Reports and reporter identities are
// included so the author sees why a comment was flagged.
func (s *ModerationService) ModerationQueue(ctx context.Context, actorID, postID uint, statusFilter string) ([]*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}
	if post.UserID != actorID {
		return nil, models.NewForbiddenError("Only the post author can view the moderation queue")
	}

	var status *models.CommentStatus
	switch statusFilter {
	case "":
	case string(models.CommentStatusPending), string(models.CommentStatusApproved), string(models.CommentStatusHidden):
		st := models.CommentStatus(statusFilter)
		status = &st
	default:
		return nil, models.NewValidationError("Unknown status filter")
	}

	return s.commentRepo.ListForModeration(ctx, postID, status)
}

// ReportComment flags a comment for the post author's attention. A reader can
// report a given comment at most once.
func (s *ModerationService) ReportComment(ctx context.Context, in ReportCommentInput) (*models.CommentReport, error) {
	if in.Reason == "" {
		return nil, models.NewValidationError("A reason is required")
	}
	if len(in.Reason) > 500 {
		return nil, models.NewValidationError("Reason too long (max 500 characters)")
	}

	if _, err := s.commentRepo.GetByID(ctx, in.CommentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}

	report := &models.CommentReport{
		CommentID:  in.CommentID,
		ReporterID: in.ReporterID,
		Reason:     in.Reason,
		Status:     models.ReportStatusOpen,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		if errors.Is(err, repository.ErrDuplicateReport) {
			return nil, models.NewConflictError("You have already reported this comment")
		}
		return nil, err
	}
	return report, nil
}

// ResolveReport closes a report. Allowed for the author of the post the
// reported comment belongs to, or for an admin.
func (s *ModerationService) ResolveReport(ctx context.Context, actorID, reportID uint) error {
	report, err := s.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Report", reportID)
		}
		return err
	}

	_, post, err := s.commentWithPost(ctx, report.CommentID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, actorID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("Only the post author or an admin can resolve reports")
		}
	}

	if err := s.reportRepo.UpdateStatus(ctx, reportID, models.ReportStatusResolved); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Report", reportID)
		}
		return err
	}
	return nil
}

// OpenReports lists unresolved reports site-wide for admins.
func (s *ModerationService) OpenReports(ctx context.Context, actorID uint, limit, offset int) ([]*models.CommentReport, error) {
	admin := false
	var err error
	if s.isAdmin != nil {
		admin, err = s.isAdmin(ctx, actorID)
		if err != nil {
			return nil, err
		}
	}
	if !admin {
		return nil, models.NewForbiddenError("Admin access required")
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.reportRepo.ListOpen(ctx, limit, offset)
}
