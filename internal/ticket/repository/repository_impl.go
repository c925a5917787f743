package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/ticket/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repo) ListByUser(ctx context.Context, userID snowflake.ID, limit, offset int) ([]domain.Ticket, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&domain.Ticket{}).Where("user_id = ?", userID), limit, offset)
}

func (r *repo) ListByStatus(ctx context.Context, status string, limit, offset int) ([]domain.Ticket, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Ticket{})
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}
	return r.list(ctx, stmt, limit, offset)
}

func (r *repo) list(ctx context.Context, stmt *gorm.DB, limit, offset int) ([]domain.Ticket, int64, error) {
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

	var tickets []domain.Ticket
	if err := stmt.Find(&tickets).Error; err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id snowflake.ID, status string, updatedAt time.Time) error {
	tx := r.db.WithContext(ctx).Model(&domain.Ticket{}).Where("id = ?", id).Updates(map[string]any{
		"status":     status,
		"updated_at": updatedAt,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *repo) CreateReply(ctx context.Context, reply *domain.Reply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *repo) ListReplies(ctx context.Context, ticketID snowflake.ID) ([]domain.Reply, error) {
	var replies []domain.Reply
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at asc, id asc").
		Find(&replies).Error
	if err != nil {
		return nil, err
	}
	return replies, nil
}
