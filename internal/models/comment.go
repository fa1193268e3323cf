package models

import (
	"time"

	"gorm.io/gorm"
)

// CommentStatus is the moderation state of a comment. New comments start as
// pending and are visible to everyone; hidden is the only gated state and is
// shown exclusively to the post author.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusHidden   CommentStatus = "hidden"
)

// MaxThreadDepth is the maximum nesting of a reply chain, counted in edges
// from the top-level comment (root = depth 0).
const MaxThreadDepth = 5

// Comment represents a comment on a post. ParentID is nil for top-level
// comments and otherwise references a comment on the same post. Deleting a
// comment soft-deletes its entire reply subtree; rows are never removed.
type Comment struct {
	ID       uint          `gorm:"primaryKey" json:"id"`
	Content  string        `gorm:"type:text;not null" json:"content"`
	PostID   uint          `gorm:"not null;index" json:"post_id"`
	UserID   uint          `gorm:"not null;index" json:"user_id"`
	ParentID *uint         `gorm:"index" json:"parent_id"`
	Status   CommentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	User User `gorm:"foreignKey:UserID" json:"user"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`

	Reports []CommentReport `gorm:"foreignKey:CommentID" json:"reports,omitempty"`

	// LikesCount is computed per request, not stored.
	LikesCount int64 `gorm:"-" json:"likes_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Visible reports whether the comment may be shown to the given viewer.
// Hidden comments are only visible to the post author; pending and approved
// comments are visible to everyone.
func (c *Comment) Visible(viewerID, postAuthorID uint) bool {
	if c.Status != CommentStatusHidden {
		return true
	}
	return viewerID != 0 && viewerID == postAuthorID
}
