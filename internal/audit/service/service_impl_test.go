package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/stegashield/stegashield/internal/audit/domain"
	auditrepo "github.com/stegashield/stegashield/internal/audit/repository"
	auditservice "github.com/stegashield/stegashield/internal/audit/service"
	"github.com/stegashield/stegashield/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuditService(t *testing.T) (auditdomain.Service, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_audit_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(`CREATE TABLE audit_logs (
		id BIGINT PRIMARY KEY,
		actor_id BIGINT,
		action TEXT NOT NULL,
		resource_type TEXT NOT NULL DEFAULT '',
		resource_id TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	node, err := snowflake.NewNode(14)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	svc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	return svc, node
}

func TestRecordAndList(t *testing.T) {
	svc, node := newAuditService(t)
	ctx := context.Background()

	actor := node.Generate()
	for i := 0; i < 3; i++ {
		if err := svc.Record(ctx, &actor, "payment.successful", "payment", fmt.Sprintf("p-%d", i), map[string]any{"source": "callback"}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := svc.Record(ctx, nil, "auth.login", "user", "u-1", nil); err != nil {
		t.Fatalf("record login: %v", err)
	}

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Action: "payment.successful",
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.AuditLogs) != 3 {
		t.Fatalf("expected 3 payment entries, got %d", len(resp.AuditLogs))
	}

	resp, err = svc.List(ctx, auditdomain.ListAuditLogRequest{ActorID: &actor})
	if err != nil {
		t.Fatalf("list by actor: %v", err)
	}
	if len(resp.AuditLogs) != 3 {
		t.Fatalf("expected 3 entries for actor, got %d", len(resp.AuditLogs))
	}
}

func TestRecordRejectsBlankAction(t *testing.T) {
	svc, _ := newAuditService(t)

	if err := svc.Record(context.Background(), nil, "   ", "", "", nil); !errors.Is(err, auditdomain.ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
}

func TestListPaginatesWithCursor(t *testing.T) {
	svc, node := newAuditService(t)
	ctx := context.Background()

	actor := node.Generate()
	for i := 0; i < 5; i++ {
		if err := svc.Record(ctx, &actor, "admin.user_updated", "user", fmt.Sprintf("u-%d", i), nil); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.AuditLogs) != 2 || !first.HasMore || first.NextPageToken == "" {
		t.Fatalf("expected a full first page with a next token, got len=%d has_more=%v", len(first.AuditLogs), first.HasMore)
	}

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.AuditLogs) != 2 {
		t.Fatalf("expected 2 entries on the second page, got %d", len(second.AuditLogs))
	}
	if second.AuditLogs[0].ID == first.AuditLogs[0].ID {
		t.Fatalf("pages must not overlap")
	}

	if _, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-token"},
	}); !errors.Is(err, auditdomain.ErrInvalidPageToken) {
		t.Fatalf("expected ErrInvalidPageToken, got %v", err)
	}

	start := time.Now().Add(time.Hour)
	end := time.Now()
	if _, err := svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end}); !errors.Is(err, auditdomain.ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
}
