package repository

import (
	"context"
	"errors"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateReport is returned when a user reports the same comment twice.
var ErrDuplicateReport = errors.New("comment already reported by this user")

// CommentReportRepository defines storage operations for comment reports.
type CommentReportRepository interface {
	Create(ctx context.Context, report *models.CommentReport) error
	GetByID(ctx context.Context, id uint) (*models.CommentReport, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error
	ListOpen(ctx context.Context, limit, offset int) ([]*models.CommentReport, error)
}

type commentReportRepository struct {
	db *gorm.DB
}

// NewCommentReportRepository creates a new CommentReportRepository
func NewCommentReportRepository(db *gorm.DB) CommentReportRepository {
	return &commentReportRepository{db: db}
}

func (r *commentReportRepository) Create(ctx context.Context, report *models.CommentReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReport
		}
		return err
	}
	return nil
}

func (r *commentReportRepository) GetByID(ctx context.Context, id uint) (*models.CommentReport, error) {
	var report models.CommentReport
	if err := r.db.WithContext(ctx).Preload("Reporter").First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *commentReportRepository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.CommentReport{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *commentReportRepository) ListOpen(ctx context.Context, limit, offset int) ([]*models.CommentReport, error) {
	var reports []*models.CommentReport
	err := r.db.WithContext(ctx).
		Preload("Reporter").
		Where("status = ?", models.ReportStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}
