package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	FindByID(ctx context.Context, id snowflake.ID) (*Plan, error)
	FindByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	Update(ctx context.Context, plan *Plan) error
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	Create(ctx context.Context, plan *Plan) (*Plan, error)
	Update(ctx context.Context, plan *Plan) (*Plan, error)
}
