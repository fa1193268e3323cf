package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
)

// NotificationService persists notifications and pushes them to connected
// clients through Redis pub/sub. Every producer-facing method is best-effort:
// failures are counted and logged, never returned, so a broken notification
// pipeline cannot fail a comment write.
type NotificationService struct {
	repo     repository.NotificationRepository
	notifier *notifications.Notifier
}

func NewNotificationService(
	repo repository.NotificationRepository,
	notifier *notifications.Notifier,
) *NotificationService {
	return &NotificationService{repo: repo, notifier: notifier}
}

var _ CommentEvents = (*NotificationService)(nil)
var _ FollowEvents = (*NotificationService)(nil)

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) {
	if err := s.repo.Create(ctx, n); err != nil {
		middleware.NotificationFailures.Inc()
		if middleware.Logger != nil {
			middleware.Logger.WarnContext(ctx, "failed to persist notification",
				"type", n.Type, "user_id", n.UserID, "error", err)
		}
		return
	}
	if s.notifier == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		middleware.NotificationFailures.Inc()
		return
	}
	if err := s.notifier.PublishUser(ctx, n.UserID, string(payload)); err != nil {
		middleware.NotificationFailures.Inc()
		if middleware.Logger != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish notification",
				"type", n.Type, "user_id", n.UserID, "error", err)
		}
	}
}

// CommentCreated notifies the post author about a new comment, or the parent
// comment's author about a reply. Self-notifications are suppressed.
func (s *NotificationService) CommentCreated(ctx context.Context, post *models.Post, comment *models.Comment, parent *models.Comment) {
	if parent != nil && parent.UserID != comment.UserID {
		s.deliver(ctx, &models.Notification{
			UserID:    parent.UserID,
			ActorID:   &comment.UserID,
			Type:      models.NotificationReplyToComment,
			PostID:    &post.ID,
			CommentID: &comment.ID,
			Message:   fmt.Sprintf("%s replied to your comment on %q", comment.User.Username, post.Title),
		})
	}
	// The post author hears about every comment in the thread, including
	// replies, unless they already got the reply notification above.
	if post.UserID != comment.UserID && (parent == nil || parent.UserID != post.UserID) {
		s.deliver(ctx, &models.Notification{
			UserID:    post.UserID,
			ActorID:   &comment.UserID,
			Type:      models.NotificationCommentOnPost,
			PostID:    &post.ID,
			CommentID: &comment.ID,
			Message:   fmt.Sprintf("%s commented on %q", comment.User.Username, post.Title),
		})
	}
}

// CommentModerated notifies a comment's author that the post author changed
// its moderation status.
func (s *NotificationService) CommentModerated(ctx context.Context, post *models.Post, comment *models.Comment) {
	verb := "approved"
	if comment.Status == models.CommentStatusHidden {
		verb = "hidden"
	}
	s.deliver(ctx, &models.Notification{
		UserID:    comment.UserID,
		ActorID:   &post.UserID,
		Type:      models.NotificationCommentModerated,
		PostID:    &post.ID,
		CommentID: &comment.ID,
		Message:   fmt.Sprintf("Your comment on %q was %s", post.Title, verb),
	})
}

// FollowerAdded notifies a user about a new follower.
func (s *NotificationService) FollowerAdded(ctx context.Context, followee *models.User, follower *models.User) {
	s.deliver(ctx, &models.Notification{
		UserID:  followee.ID,
		ActorID: &follower.ID,
		Type:    models.NotificationNewFollower,
		Message: fmt.Sprintf("%s started following you", follower.Username),
	})
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.repo.ListForUser(ctx, userID, unreadOnly, limit, offset)
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	if err := s.repo.MarkRead(ctx, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Notification", notificationID)
		}
		return err
	}
	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// UnreadCount returns the number of unread notifications for badge display.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}
