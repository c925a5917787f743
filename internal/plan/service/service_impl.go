package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	"github.com/stegashield/stegashield/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  plandomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  plandomain.Repository
}

func NewService(p Params) plandomain.Service {
	return &Service{
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*plandomain.Plan, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*plandomain.Plan, error) {
	return s.repo.FindByCode(ctx, code)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]plandomain.Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Create(ctx context.Context, plan *plandomain.Plan) (*plandomain.Plan, error) {
	plan.Code = strings.ToLower(strings.TrimSpace(plan.Code))
	if plan.Code == "" || strings.TrimSpace(plan.Name) == "" {
		return nil, plandomain.ErrInvalidPlan
	}

	now := time.Now().UTC()
	plan.ID = s.genID.Generate()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if len(plan.Features) == 0 {
		plan.Features = datatypes.JSON("[]")
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, plandomain.ErrPlanExists
		}
		return nil, err
	}

	s.log.Info("plan created", zap.String("plan_id", plan.ID.String()), zap.String("code", plan.Code))
	return plan, nil
}

func (s *Service) Update(ctx context.Context, plan *plandomain.Plan) (*plandomain.Plan, error) {
	existing, err := s.repo.FindByID(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	plan.Code = existing.Code
	plan.UpdatedAt = time.Now().UTC()
	if len(plan.Features) == 0 {
		plan.Features = datatypes.JSON("[]")
	}
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, plan.ID)
}
