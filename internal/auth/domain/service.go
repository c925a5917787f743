package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*User, error)
	CurrentUser(ctx context.Context, id snowflake.ID) (*User, error)
	ChangePassword(ctx context.Context, id snowflake.ID, current, next string) error

	SetupTOTP(ctx context.Context, id snowflake.ID) (*TOTPSetup, error)
	EnableTOTP(ctx context.Context, id snowflake.ID, code string) error
	DisableTOTP(ctx context.Context, id snowflake.ID, code string) error
}

type RegisterRequest struct {
	Email       string
	Password    string
	DisplayName string
}

type LoginRequest struct {
	Email    string
	Password string
	TOTPCode string
}

type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// TOTPSetup carries the provisioning material returned once at setup time.
type TOTPSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauth_url"`
}
