package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	planrepo "github.com/stegashield/stegashield/internal/plan/repository"
	planservice "github.com/stegashield/stegashield/internal/plan/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newPlanService(t *testing.T) plandomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_plan_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(`CREATE TABLE plans (
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
	)`).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX idx_plans_code ON plans (code)`).Error; err != nil {
		t.Fatalf("create index: %v", err)
	}

	node, err := snowflake.NewNode(15)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return planservice.NewService(planservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  planrepo.New(db),
	})
}

func TestPlanCreateAndGet(t *testing.T) {
	svc := newPlanService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &plandomain.Plan{
		Code:     " Pro ",
		Name:     "Pro",
		PriceUSD: decimal.RequireFromString("25"),
		Active:   true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Code != "pro" {
		t.Fatalf("expected lowercased trimmed code, got %q", created.Code)
	}

	got, err := svc.GetByCode(ctx, "pro")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("lookup mismatch: %s vs %s", got.ID, created.ID)
	}
	if got.IsFree() {
		t.Fatalf("a $25 plan is not free")
	}
}

func TestPlanCreateRejectsDuplicatesAndBlank(t *testing.T) {
	svc := newPlanService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &plandomain.Plan{Code: "pro", Name: "Pro", Active: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, &plandomain.Plan{Code: "PRO", Name: "Pro again", Active: true}); !errors.Is(err, plandomain.ErrPlanExists) {
		t.Fatalf("expected ErrPlanExists, got %v", err)
	}
	if _, err := svc.Create(ctx, &plandomain.Plan{Code: "  ", Name: "Anon"}); !errors.Is(err, plandomain.ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestPlanUpdatePreservesCode(t *testing.T) {
	svc := newPlanService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &plandomain.Plan{Code: "pro", Name: "Pro", Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	created.Code = "hacked"
	created.Name = "Pro v2"
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Code != "pro" {
		t.Fatalf("code must be immutable, got %q", updated.Code)
	}
	if updated.Name != "Pro v2" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}
}

func TestPlanListActiveOnly(t *testing.T) {
	svc := newPlanService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &plandomain.Plan{Code: "free", Name: "Free", Active: true}); err != nil {
		t.Fatalf("create free: %v", err)
	}
	if _, err := svc.Create(ctx, &plandomain.Plan{Code: "legacy", Name: "Legacy", Active: false}); err != nil {
		t.Fatalf("create legacy: %v", err)
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	active, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(all) != 2 || len(active) != 1 {
		t.Fatalf("expected 2 total and 1 active, got %d and %d", len(all), len(active))
	}
	if active[0].Code != "free" {
		t.Fatalf("expected the active plan, got %q", active[0].Code)
	}
}
