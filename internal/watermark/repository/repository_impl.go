package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/watermark/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreateUpload(ctx context.Context, upload *domain.Upload) error {
	return r.db.WithContext(ctx).Create(upload).Error
}

func (r *repo) FindUpload(ctx context.Context, id snowflake.ID) (*domain.Upload, error) {
	var upload domain.Upload
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&upload).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUploadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *repo) ListUploads(ctx context.Context, userID snowflake.ID, limit, offset int) ([]domain.Upload, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Upload{}).Where("user_id = ?", userID)

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}

	var uploads []domain.Upload
	if err := stmt.Find(&uploads).Error; err != nil {
		return nil, 0, err
	}
	return uploads, total, nil
}

func (r *repo) ListFlagged(ctx context.Context, limit, offset int) ([]domain.Upload, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Upload{}).Where("flagged = ?", true)

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order("updated_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}

	var uploads []domain.Upload
	if err := stmt.Find(&uploads).Error; err != nil {
		return nil, 0, err
	}
	return uploads, total, nil
}

func (r *repo) CountUploadsSince(ctx context.Context, userID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Upload{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	return count, err
}

func (r *repo) SetFlag(ctx context.Context, id snowflake.ID, flagged bool) error {
	tx := r.db.WithContext(ctx).Model(&domain.Upload{}).Where("id = ?", id).Updates(map[string]any{
		"flagged":    flagged,
		"updated_at": time.Now().UTC(),
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUploadNotFound
	}
	return nil
}

func (r *repo) CreateReport(ctx context.Context, report *domain.VerificationReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repo) FindReport(ctx context.Context, id snowflake.ID) (*domain.VerificationReport, error) {
	var report domain.VerificationReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repo) ListReports(ctx context.Context, userID snowflake.ID, limit, offset int) ([]domain.VerificationReport, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.VerificationReport{}).Where("user_id = ?", userID)

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt = stmt.Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}

	var reports []domain.VerificationReport
	if err := stmt.Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *repo) CountReportsSince(ctx context.Context, userID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.VerificationReport{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&count).Error
	return count, err
}
