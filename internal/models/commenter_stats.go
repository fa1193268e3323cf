package models

import "time"

// TopCommenterThreshold is the number of comments on a given author's posts
// at which a commenter is flagged as a top commenter of that author.
const TopCommenterThreshold = 5

// CommenterStats is a denormalized per-(post author, commenter) counter,
// maintained incrementally on comment create and soft-delete. It is purely
// derived state and can be rebuilt from comment history. A row never exists
// for an author commenting on their own posts, and a row whose count would
// drop to zero is deleted rather than kept at zero.
type CommenterStats struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostAuthorID  uint      `gorm:"not null;uniqueIndex:idx_stats_author_commenter" json:"post_author_id"`
	CommenterID   uint      `gorm:"not null;uniqueIndex:idx_stats_author_commenter" json:"commenter_id"`
	CommentCount  int       `gorm:"not null;default:0" json:"comment_count"`
	LastCommentAt time.Time `json:"last_comment_at"`
}

// IsTop reports whether the counter meets the top-commenter threshold.
func (s *CommenterStats) IsTop() bool {
	return s.CommentCount >= TopCommenterThreshold
}
