package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a published or draft article in the Inkwell application.
type Post struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Title           string `gorm:"not null" json:"title"`
	Slug            string `gorm:"uniqueIndex;not null" json:"slug"`
	Content         string `gorm:"type:text;not null" json:"content"`
	CoverImageURL   string `json:"cover_image_url"`
	UserID          uint   `gorm:"not null;index" json:"user_id"`
	User            User   `gorm:"foreignKey:UserID" json:"user"`
	Published       bool   `gorm:"default:false;index" json:"published"`
	CommentsEnabled bool   `gorm:"default:true" json:"comments_enabled"`
	Views           int64  `gorm:"default:0" json:"views"`
	Tags            []Tag  `gorm:"many2many:post_tags;" json:"tags,omitempty"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int            `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}
