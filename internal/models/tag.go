package models

import "time"

// Tag is a label attached to posts. Tags are created on demand when a post
// references an unknown name.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	Posts []Post `gorm:"many2many:post_tags;" json:"posts,omitempty"`
}
