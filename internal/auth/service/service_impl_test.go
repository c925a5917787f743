package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pquerna/otp/totp"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	authrepo "github.com/stegashield/stegashield/internal/auth/repository"
	authservice "github.com/stegashield/stegashield/internal/auth/service"
	"github.com/stegashield/stegashield/internal/auth/token"
	"github.com/stegashield/stegashield/internal/config"
	planrepo "github.com/stegashield/stegashield/internal/plan/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (authdomain.Service, *gorm.DB) {
	t.Helper()

	db := setupAuthTestDB(t)
	node, err := snowflake.NewNode(11)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	issuer, err := token.NewIssuer("test-secret", time.Hour, "stegashield")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	svc := authservice.NewService(authservice.Params{
		Cfg:    config.Config{AppName: "stegashield"},
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   authrepo.New(db),
		Plans:  planrepo.New(db),
		Issuer: issuer,
	})

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO plans (id, code, name, description, price_usd, upload_limit, verify_limit, features, active, created_at, updated_at)
		 VALUES (?, 'free', 'Free', '', 0, 5, 10, '[]', 1, ?, ?)`,
		node.Generate(), now, now,
	).Error; err != nil {
		t.Fatalf("seed free plan: %v", err)
	}
	return svc, db
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{
		Email:       "Alice@Example.com",
		Password:    "correct horse",
		DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", user.Email)
	}
	if user.Role != authdomain.RoleUser {
		t.Fatalf("expected user role, got %q", user.Role)
	}
	if user.PlanID == 0 {
		t.Fatalf("expected the free plan assigned")
	}

	result, err := svc.Login(ctx, authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a signed token")
	}

	authed, err := svc.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("token resolved wrong user: %s vs %s", authed.ID, user.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	req := authdomain.RegisterRequest{Email: "bob@example.com", Password: "password123"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, authdomain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	// Same address, different case.
	req.Email = "BOB@example.com"
	if _, err := svc.Register(ctx, req); !errors.Is(err, authdomain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for case variant, got %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, authdomain.RegisterRequest{Email: "carol@example.com", Password: "password123"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "carol@example.com", Password: "wrong"}); !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	// Unknown accounts fail identically to bad passwords.
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "nobody@example.com", Password: "password123"}); !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), authdomain.RegisterRequest{Email: "dave@example.com", Password: "short"})
	if !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTOTPEnrollmentAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{Email: "eve@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	setup, err := svc.SetupTOTP(ctx, user.ID)
	if err != nil {
		t.Fatalf("setup totp: %v", err)
	}
	if setup.Secret == "" || setup.OtpauthURL == "" {
		t.Fatalf("expected provisioning material, got %+v", setup)
	}

	// Setup alone must not require a code on login yet.
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "eve@example.com", Password: "password123"}); err != nil {
		t.Fatalf("login before enable: %v", err)
	}

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if err := svc.EnableTOTP(ctx, user.ID, code); err != nil {
		t.Fatalf("enable totp: %v", err)
	}

	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "eve@example.com", Password: "password123"}); !errors.Is(err, authdomain.ErrTOTPRequired) {
		t.Fatalf("expected ErrTOTPRequired, got %v", err)
	}
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "eve@example.com", Password: "password123", TOTPCode: "000000"}); !errors.Is(err, authdomain.ErrTOTPInvalid) {
		t.Fatalf("expected ErrTOTPInvalid, got %v", err)
	}

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "eve@example.com", Password: "password123", TOTPCode: code}); err != nil {
		t.Fatalf("login with totp: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, authdomain.RegisterRequest{Email: "frank@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpassword123"); !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "password123", "newpassword123"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "frank@example.com", Password: "password123"}); !errors.Is(err, authdomain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := svc.Login(ctx, authdomain.LoginRequest{Email: "frank@example.com", Password: "newpassword123"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		`CREATE UNIQUE INDEX idx_users_email ON users (LOWER(email))`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
