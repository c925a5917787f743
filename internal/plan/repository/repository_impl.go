package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, plan *domain.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) FindByCode(ctx context.Context, code string) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("code = ?", strings.TrimSpace(code)).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Plan{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var plans []domain.Plan
	if err := stmt.Order("price_usd asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) Update(ctx context.Context, plan *domain.Plan) error {
	tx := r.db.WithContext(ctx).Model(&domain.Plan{}).Where("id = ?", plan.ID).Updates(map[string]any{
		"name":         plan.Name,
		"description":  plan.Description,
		"price_usd":    plan.PriceUSD,
		"upload_limit": plan.UploadLimit,
		"verify_limit": plan.VerifyLimit,
		"features":     plan.Features,
		"active":       plan.Active,
		"updated_at":   plan.UpdatedAt,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}
