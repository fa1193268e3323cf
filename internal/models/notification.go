package models

import "time"

// NotificationType distinguishes the events that produce notifications.
type NotificationType string

const (
	NotificationCommentOnPost    NotificationType = "comment_on_post"
	NotificationReplyToComment   NotificationType = "reply_to_comment"
	NotificationNewFollower      NotificationType = "new_follower"
	NotificationCommentModerated NotificationType = "comment_moderated"
)

// Notification is a persisted notification row for a user. Delivery is
// best-effort: producers must never fail their own operation because a
// notification could not be written or published.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	ActorID   *uint            `gorm:"index" json:"actor_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	PostID    *uint            `json:"post_id"`
	CommentID *uint            `json:"comment_id"`
	Message   string           `gorm:"size:500" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}
