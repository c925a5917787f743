package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	announcementdomain "github.com/stegashield/stegashield/internal/announcement/domain"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     announcementdomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     announcementdomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) announcementdomain.Service {
	return &Service{
		log:      p.Log.Named("announcement.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, createdBy snowflake.ID, title, body string, published bool) (*announcementdomain.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, announcementdomain.ErrInvalidAnnouncement
	}

	now := time.Now().UTC()
	announcement := &announcementdomain.Announcement{
		ID:        s.genID.Generate(),
		Title:     title,
		Body:      body,
		Published: published,
		CreatedBy: &createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	if err := s.auditSvc.Record(ctx, &createdBy, "announcement.created", "announcement", announcement.ID.String(), nil); err != nil {
		s.log.Warn("announcement audit write failed", zap.Error(err))
	}
	return announcement, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*announcementdomain.Announcement, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, publishedOnly bool, limit, offset int) ([]announcementdomain.Announcement, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, publishedOnly, limit, offset)
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, title, body string, published bool) (*announcementdomain.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" || body == "" {
		return nil, announcementdomain.ErrInvalidAnnouncement
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing.Title = title
	existing.Body = body
	existing.Published = published
	existing.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	return s.repo.Delete(ctx, id)
}
