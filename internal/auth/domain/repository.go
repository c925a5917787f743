package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int64, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
}

// ListFilter narrows admin user listings.
type ListFilter struct {
	Role   string
	Limit  int
	Offset int
}
