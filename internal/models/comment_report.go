package models

import "time"

// ReportStatus is the lifecycle state of a comment report.
type ReportStatus string

const (
	ReportStatusOpen     ReportStatus = "open"
	ReportStatusResolved ReportStatus = "resolved"
)

// CommentReport is a user's report of a comment. A user may report a given
// comment only once.
type CommentReport struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	CommentID  uint         `gorm:"not null;uniqueIndex:idx_report_comment_reporter" json:"comment_id"`
	ReporterID uint         `gorm:"not null;uniqueIndex:idx_report_comment_reporter" json:"reporter_id"`
	Reason     string       `gorm:"size:500;not null" json:"reason"`
	Status     ReportStatus `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	CreatedAt  time.Time    `json:"created_at"`

	Reporter User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
}
