package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     watermarkdomain.Repository
	Users    authdomain.Repository
	Plans    plandomain.Repository
	AuditSvc auditdomain.Service
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	repo     watermarkdomain.Repository
	users    authdomain.Repository
	plans    plandomain.Repository
	auditSvc auditdomain.Service
}

func NewService(p Params) watermarkdomain.Service {
	return &Service{
		log:      p.Log.Named("watermark.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		users:    p.Users,
		plans:    p.Plans,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) CreateUpload(ctx context.Context, req watermarkdomain.CreateUploadRequest) (*watermarkdomain.Upload, error) {
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.SHA256) == "" {
		return nil, watermarkdomain.ErrInvalidUpload
	}

	plan, err := s.userPlan(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if plan.UploadLimit > 0 {
		used, err := s.repo.CountUploadsSince(ctx, req.UserID, monthStart())
		if err != nil {
			return nil, err
		}
		if used >= int64(plan.UploadLimit) {
			return nil, watermarkdomain.ErrUploadQuota
		}
	}

	now := time.Now().UTC()
	upload := &watermarkdomain.Upload{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		FileName:    strings.TrimSpace(req.FileName),
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		SHA256:      strings.ToLower(strings.TrimSpace(req.SHA256)),
		WatermarkID: strings.TrimSpace(req.WatermarkID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateUpload(ctx, upload); err != nil {
		return nil, err
	}

	s.log.Info("upload recorded",
		zap.String("upload_id", upload.ID.String()),
		zap.String("sha256", upload.SHA256),
	)
	return upload, nil
}

func (s *Service) GetUpload(ctx context.Context, userID, id snowflake.ID) (*watermarkdomain.Upload, error) {
	upload, err := s.repo.FindUpload(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && upload.UserID != userID {
		return nil, watermarkdomain.ErrUploadNotFound
	}
	return upload, nil
}

func (s *Service) ListUploads(ctx context.Context, userID snowflake.ID, limit, offset int) ([]watermarkdomain.Upload, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListUploads(ctx, userID, limit, offset)
}

func (s *Service) ListFlagged(ctx context.Context, limit, offset int) ([]watermarkdomain.Upload, int64, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	return s.repo.ListFlagged(ctx, limit, offset)
}

func (s *Service) SetFlag(ctx context.Context, id snowflake.ID, flagged bool) (*watermarkdomain.Upload, error) {
	if err := s.repo.SetFlag(ctx, id, flagged); err != nil {
		return nil, err
	}

	action := "upload.unflagged"
	if flagged {
		action = "upload.flagged"
	}
	if err := s.auditSvc.Record(ctx, nil, action, "upload", id.String(), nil); err != nil {
		s.log.Warn("upload audit write failed", zap.Error(err))
	}

	return s.repo.FindUpload(ctx, id)
}

func (s *Service) CreateReport(ctx context.Context, req watermarkdomain.CreateReportRequest) (*watermarkdomain.VerificationReport, error) {
	switch req.Verdict {
	case watermarkdomain.VerdictAuthentic, watermarkdomain.VerdictTampered, watermarkdomain.VerdictInconclusive:
	default:
		return nil, watermarkdomain.ErrInvalidVerdict
	}

	plan, err := s.userPlan(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if plan.VerifyLimit > 0 {
		used, err := s.repo.CountReportsSince(ctx, req.UserID, monthStart())
		if err != nil {
			return nil, err
		}
		if used >= int64(plan.VerifyLimit) {
			return nil, watermarkdomain.ErrVerifyQuota
		}
	}

	if req.UploadID != nil {
		upload, err := s.repo.FindUpload(ctx, *req.UploadID)
		if err != nil {
			return nil, err
		}
		if upload.UserID != req.UserID {
			return nil, watermarkdomain.ErrUploadNotFound
		}
	}

	detail := req.Detail
	if len(detail) == 0 {
		detail = []byte("{}")
	}

	report := &watermarkdomain.VerificationReport{
		ID:         s.genID.Generate(),
		UserID:     req.UserID,
		UploadID:   req.UploadID,
		Verdict:    req.Verdict,
		Confidence: req.Confidence,
		Detail:     datatypes.JSON(detail),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) GetReport(ctx context.Context, userID, id snowflake.ID) (*watermarkdomain.VerificationReport, error) {
	report, err := s.repo.FindReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != 0 && report.UserID != userID {
		return nil, watermarkdomain.ErrReportNotFound
	}
	return report, nil
}

func (s *Service) ListReports(ctx context.Context, userID snowflake.ID, limit, offset int) ([]watermarkdomain.VerificationReport, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListReports(ctx, userID, limit, offset)
}

func (s *Service) userPlan(ctx context.Context, userID snowflake.ID) (*plandomain.Plan, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.plans.FindByID(ctx, user.PlanID)
}

// monthStart is the quota window boundary; quotas reset on the first
// of each calendar month, UTC.
func monthStart() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
