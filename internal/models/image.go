package models

import "time"

// Image is the metadata row for an uploaded image. Files are deduplicated by
// content hash and stored re-encoded as WebP.
type Image struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Hash       string    `gorm:"uniqueIndex;size:64;not null" json:"hash"`
	Filename   string    `gorm:"size:255" json:"filename"`
	Path       string    `gorm:"size:512;not null" json:"-"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"-"`
}
