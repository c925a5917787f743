// Package domain contains core types for product announcements.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrInvalidAnnouncement  = errors.New("invalid announcement")
)

type Announcement struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	Title     string        `gorm:"type:text;not null" json:"title"`
	Body      string        `gorm:"type:text;not null" json:"body"`
	Published bool          `gorm:"not null;default:false" json:"published"`
	CreatedBy *snowflake.ID `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Announcement) TableName() string { return "announcements" }

type Repository interface {
	Create(ctx context.Context, announcement *Announcement) error
	FindByID(ctx context.Context, id snowflake.ID) (*Announcement, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]Announcement, int64, error)
	Update(ctx context.Context, announcement *Announcement) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type Service interface {
	Create(ctx context.Context, createdBy snowflake.ID, title, body string, published bool) (*Announcement, error)
	Get(ctx context.Context, id snowflake.ID) (*Announcement, error)
	List(ctx context.Context, publishedOnly bool, limit, offset int) ([]Announcement, int64, error)
	Update(ctx context.Context, id snowflake.ID, title, body string, published bool) (*Announcement, error)
	Delete(ctx context.Context, id snowflake.ID) error
}
