package token_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stegashield/stegashield/internal/auth/token"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := token.NewIssuer("secret", time.Hour, "stegashield")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	userID := snowflake.ID(123456789)
	now := time.Now().UTC()
	signed, expiresAt, err := issuer.Issue(userID, "admin", now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := now.Add(time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, expiresAt)
	}

	id, role, err := issuer.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != userID {
		t.Fatalf("expected subject %s, got %s", userID, id)
	}
	if role != "admin" {
		t.Fatalf("expected role admin, got %q", role)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer, err := token.NewIssuer("secret-a", time.Hour, "stegashield")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	other, err := token.NewIssuer("secret-b", time.Hour, "stegashield")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	signed, _, err := other.Issue(snowflake.ID(1), "user", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := issuer.Verify(signed); err == nil {
		t.Fatalf("expected verification failure for foreign signature")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer, err := token.NewIssuer("secret", time.Minute, "stegashield")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	signed, _, err := issuer.Issue(snowflake.ID(1), "user", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, _, err := issuer.Verify(signed); err == nil {
		t.Fatalf("expected verification failure for expired token")
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := token.NewIssuer("", time.Hour, "stegashield"); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
