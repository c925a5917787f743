package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/announcement/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, announcement *domain.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Announcement, error) {
	var announcement domain.Announcement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&announcement).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAnnouncementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &announcement, nil
}

func (r *repo) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]domain.Announcement, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Announcement{})
	if publishedOnly {
		stmt = stmt.Where("published = ?", true)
	}

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

	var announcements []domain.Announcement
	if err := stmt.Find(&announcements).Error; err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

func (r *repo) Update(ctx context.Context, announcement *domain.Announcement) error {
	tx := r.db.WithContext(ctx).Model(&domain.Announcement{}).
		Where("id = ?", announcement.ID).
		Updates(map[string]any{
			"title":      announcement.Title,
			"body":       announcement.Body,
			"published":  announcement.Published,
			"updated_at": announcement.UpdatedAt,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAnnouncementNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Announcement{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrAnnouncementNotFound
	}
	return nil
}
