package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditrepo "github.com/stegashield/stegashield/internal/audit/repository"
	auditservice "github.com/stegashield/stegashield/internal/audit/service"
	authrepo "github.com/stegashield/stegashield/internal/auth/repository"
	planrepo "github.com/stegashield/stegashield/internal/plan/repository"
	watermarkdomain "github.com/stegashield/stegashield/internal/watermark/domain"
	watermarkrepo "github.com/stegashield/stegashield/internal/watermark/repository"
	watermarkservice "github.com/stegashield/stegashield/internal/watermark/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type watermarkFixture struct {
	db     *gorm.DB
	node   *snowflake.Node
	svc    watermarkdomain.Service
	userID snowflake.ID
}

// newWatermarkFixture seeds one user on a plan allowing two uploads and
// two verifications per month.
func newWatermarkFixture(t *testing.T) *watermarkFixture {
	t.Helper()

	db := setupWatermarkTestDB(t)
	node, err := snowflake.NewNode(12)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	svc := watermarkservice.NewService(watermarkservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  watermarkrepo.New(db),
		Users: authrepo.New(db),
		Plans: planrepo.New(db),
		AuditSvc: auditservice.NewService(auditservice.Params{
			DB:    db,
			Log:   zap.NewNop(),
			GenID: node,
			Repo:  auditrepo.Provide(),
		}),
	})

	f := &watermarkFixture{db: db, node: node, svc: svc, userID: node.Generate()}

	now := time.Now().UTC()
	planID := node.Generate()
	if err := db.Exec(
		`INSERT INTO plans (id, code, name, description, price_usd, upload_limit, verify_limit, features, active, created_at, updated_at)
		 VALUES (?, 'starter', 'Starter', '', 5, 2, 2, '[]', 1, ?, ?)`,
		planID, now, now,
	).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	if err := db.Exec(
		`INSERT INTO users (id, email, password_hash, display_name, role, plan_id, totp_secret, totp_enabled, created_at, updated_at)
		 VALUES (?, 'user@example.com', 'x', 'User', 'user', ?, '', 0, ?, ?)`,
		f.userID, planID, now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return f
}

func (f *watermarkFixture) upload(t *testing.T, name string) *watermarkdomain.Upload {
	t.Helper()
	upload, err := f.svc.CreateUpload(context.Background(), watermarkdomain.CreateUploadRequest{
		UserID:      f.userID,
		FileName:    name,
		ContentType: "image/png",
		SizeBytes:   1024,
		SHA256:      "ab12cd34",
		WatermarkID: "wm-1",
	})
	if err != nil {
		t.Fatalf("create upload %s: %v", name, err)
	}
	return upload
}

func TestUploadQuotaEnforced(t *testing.T) {
	f := newWatermarkFixture(t)

	f.upload(t, "a.png")
	f.upload(t, "b.png")

	_, err := f.svc.CreateUpload(context.Background(), watermarkdomain.CreateUploadRequest{
		UserID:   f.userID,
		FileName: "c.png",
		SHA256:   "ab12cd34",
	})
	if !errors.Is(err, watermarkdomain.ErrUploadQuota) {
		t.Fatalf("expected ErrUploadQuota on the third upload, got %v", err)
	}
}

func TestVerifyQuotaEnforced(t *testing.T) {
	f := newWatermarkFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.svc.CreateReport(ctx, watermarkdomain.CreateReportRequest{
			UserID:     f.userID,
			Verdict:    watermarkdomain.VerdictAuthentic,
			Confidence: decimal.RequireFromString("0.97"),
		}); err != nil {
			t.Fatalf("create report %d: %v", i, err)
		}
	}

	_, err := f.svc.CreateReport(ctx, watermarkdomain.CreateReportRequest{
		UserID:  f.userID,
		Verdict: watermarkdomain.VerdictAuthentic,
	})
	if !errors.Is(err, watermarkdomain.ErrVerifyQuota) {
		t.Fatalf("expected ErrVerifyQuota on the third report, got %v", err)
	}
}

func TestCreateReportRejectsUnknownVerdict(t *testing.T) {
	f := newWatermarkFixture(t)

	_, err := f.svc.CreateReport(context.Background(), watermarkdomain.CreateReportRequest{
		UserID:  f.userID,
		Verdict: "maybe",
	})
	if !errors.Is(err, watermarkdomain.ErrInvalidVerdict) {
		t.Fatalf("expected ErrInvalidVerdict, got %v", err)
	}
}

func TestGetReportEnforcesOwnership(t *testing.T) {
	f := newWatermarkFixture(t)
	ctx := context.Background()

	report, err := f.svc.CreateReport(ctx, watermarkdomain.CreateReportRequest{
		UserID:     f.userID,
		Verdict:    watermarkdomain.VerdictTampered,
		Confidence: decimal.RequireFromString("0.88"),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	if _, err := f.svc.GetReport(ctx, f.userID, report.ID); err != nil {
		t.Fatalf("owner get report: %v", err)
	}

	stranger := f.node.Generate()
	if _, err := f.svc.GetReport(ctx, stranger, report.ID); !errors.Is(err, watermarkdomain.ErrReportNotFound) {
		t.Fatalf("expected not found for another user's report, got %v", err)
	}
}

func TestFlagUploadRoundTrip(t *testing.T) {
	f := newWatermarkFixture(t)
	ctx := context.Background()

	upload := f.upload(t, "suspect.png")

	flagged, err := f.svc.SetFlag(ctx, upload.ID, true)
	if err != nil {
		t.Fatalf("flag upload: %v", err)
	}
	if !flagged.Flagged {
		t.Fatalf("expected upload flagged")
	}

	list, total, err := f.svc.ListFlagged(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list flagged: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != upload.ID {
		t.Fatalf("expected the flagged upload listed, got total=%d len=%d", total, len(list))
	}

	if _, err := f.svc.SetFlag(ctx, upload.ID, false); err != nil {
		t.Fatalf("unflag upload: %v", err)
	}
	if _, total, err = f.svc.ListFlagged(ctx, 10, 0); err != nil || total != 0 {
		t.Fatalf("expected empty flag list, total=%d err=%v", total, err)
	}
}

func setupWatermarkTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_watermark_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE plans (
			id BIGINT PRIMARY KEY,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price_usd NUMERIC(12,2) NOT NULL DEFAULT 0,
			upload_limit INTEGER NOT NULL DEFAULT 0,
			verify_limit INTEGER NOT NULL DEFAULT 0,
			features TEXT NOT NULL DEFAULT '[]',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			plan_id BIGINT,
			totp_secret TEXT NOT NULL DEFAULT '',
			totp_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE uploads (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			file_name TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			size_bytes BIGINT NOT NULL DEFAULT 0,
			sha256 TEXT NOT NULL,
			watermark_id TEXT NOT NULL DEFAULT '',
			flagged BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE verification_reports (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			upload_id BIGINT,
			verdict TEXT NOT NULL,
			confidence NUMERIC(5,4) NOT NULL DEFAULT 0,
			detail TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE audit_logs (
			id BIGINT PRIMARY KEY,
			actor_id BIGINT,
			action TEXT NOT NULL,
			resource_type TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
