// Package domain contains core types for support tickets.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
	StatusClosed   = "closed"
)

var (
	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketClosed   = errors.New("ticket closed")
	ErrInvalidTicket  = errors.New("invalid ticket")
)

type Ticket struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index" json:"user_id"`
	Subject   string       `gorm:"type:text;not null" json:"subject"`
	Body      string       `gorm:"type:text;not null" json:"body"`
	Status    string       `gorm:"type:text;not null;default:'open'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Replies []Reply `gorm:"-" json:"replies,omitempty"`
}

// TableName sets the database table name.
func (Ticket) TableName() string { return "tickets" }

type Reply struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TicketID  snowflake.ID `gorm:"column:ticket_id;not null;index" json:"ticket_id"`
	AuthorID  snowflake.ID `gorm:"column:author_id;not null" json:"author_id"`
	Body      string       `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Reply) TableName() string { return "ticket_replies" }

type Repository interface {
	Create(ctx context.Context, ticket *Ticket) error
	FindByID(ctx context.Context, id snowflake.ID) (*Ticket, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit, offset int) ([]Ticket, int64, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Ticket, int64, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status string, updatedAt time.Time) error

	CreateReply(ctx context.Context, reply *Reply) error
	ListReplies(ctx context.Context, ticketID snowflake.ID) ([]Reply, error)
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, subject, body string) (*Ticket, error)
	Get(ctx context.Context, requester RequesterInfo, id snowflake.ID) (*Ticket, error)
	ListByUser(ctx context.Context, userID snowflake.ID, limit, offset int) ([]Ticket, int64, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Ticket, int64, error)
	Reply(ctx context.Context, requester RequesterInfo, id snowflake.ID, body string) (*Reply, error)
	Close(ctx context.Context, requester RequesterInfo, id snowflake.ID) (*Ticket, error)
}

// RequesterInfo carries the caller identity used for ownership checks.
type RequesterInfo struct {
	UserID snowflake.ID
	Admin  bool
}
