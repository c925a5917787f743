package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrUploadNotFound  = errors.New("upload not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidUpload   = errors.New("invalid upload")
	ErrInvalidVerdict  = errors.New("invalid verdict")
	ErrUploadQuota     = errors.New("upload quota exceeded")
	ErrVerifyQuota     = errors.New("verification quota exceeded")
)

type Repository interface {
	CreateUpload(ctx context.Context, upload *Upload) error
	FindUpload(ctx context.Context, id snowflake.ID) (*Upload, error)
	ListUploads(ctx context.Context, userID snowflake.ID, limit, offset int) ([]Upload, int64, error)
	CountUploadsSince(ctx context.Context, userID snowflake.ID, since time.Time) (int64, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]Upload, int64, error)
	SetFlag(ctx context.Context, id snowflake.ID, flagged bool) error

	CreateReport(ctx context.Context, report *VerificationReport) error
	FindReport(ctx context.Context, id snowflake.ID) (*VerificationReport, error)
	ListReports(ctx context.Context, userID snowflake.ID, limit, offset int) ([]VerificationReport, int64, error)
	CountReportsSince(ctx context.Context, userID snowflake.ID, since time.Time) (int64, error)
}

type CreateUploadRequest struct {
	UserID      snowflake.ID
	FileName    string
	ContentType string
	SizeBytes   int64
	SHA256      string
	WatermarkID string
}

type CreateReportRequest struct {
	UserID     snowflake.ID
	UploadID   *snowflake.ID
	Verdict    string
	Confidence decimal.Decimal
	Detail     []byte
}

type Service interface {
	CreateUpload(ctx context.Context, req CreateUploadRequest) (*Upload, error)
	GetUpload(ctx context.Context, userID, id snowflake.ID) (*Upload, error)
	ListUploads(ctx context.Context, userID snowflake.ID, limit, offset int) ([]Upload, int64, error)
	ListFlagged(ctx context.Context, limit, offset int) ([]Upload, int64, error)
	SetFlag(ctx context.Context, id snowflake.ID, flagged bool) (*Upload, error)

	CreateReport(ctx context.Context, req CreateReportRequest) (*VerificationReport, error)
	GetReport(ctx context.Context, userID, id snowflake.ID) (*VerificationReport, error)
	ListReports(ctx context.Context, userID snowflake.ID, limit, offset int) ([]VerificationReport, int64, error)
}
