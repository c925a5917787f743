package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pquerna/otp/totp"
	authdomain "github.com/stegashield/stegashield/internal/auth/domain"
	"github.com/stegashield/stegashield/internal/auth/password"
	"github.com/stegashield/stegashield/internal/auth/token"
	"github.com/stegashield/stegashield/internal/config"
	plandomain "github.com/stegashield/stegashield/internal/plan/domain"
	"github.com/stegashield/stegashield/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg    config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   authdomain.Repository
	Plans  plandomain.Repository
	Issuer *token.Issuer
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    authdomain.Repository
	plans   plandomain.Repository
	issuer  *token.Issuer
	appName string
}

func NewService(p Params) authdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("auth.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		plans:   p.Plans,
		issuer:  p.Issuer,
		appName: p.Cfg.AppName,
	}
}

func (s *Service) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, authdomain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, authdomain.ErrUserExists
	}

	free, err := s.plans.FindByCode(ctx, plandomain.CodeFree)
	if err != nil {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &authdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         authdomain.RoleUser,
		PlanID:       free.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, authdomain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Same failure as a bad password so the endpoint does not leak
		// which emails exist.
		return nil, authdomain.ErrInvalidCredentials
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, authdomain.ErrInvalidCredentials
	}

	if user.TOTPEnabled {
		code := strings.TrimSpace(req.TOTPCode)
		if code == "" {
			return nil, authdomain.ErrTOTPRequired
		}
		if !totp.Validate(code, user.TOTPSecret) {
			return nil, authdomain.ErrTOTPInvalid
		}
	}

	signed, expiresAt, err := s.issuer.Issue(user.ID, user.Role, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &authdomain.LoginResult{
		User:      user,
		Token:     signed,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, error) {
	id, _, err := s.issuer.Verify(rawToken)
	if err != nil || id == 0 {
		return nil, authdomain.ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, authdomain.ErrInvalidToken
	}
	return user, nil
}

func (s *Service) CurrentUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, id snowflake.ID, current, next string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !password.Verify(current, user.PasswordHash) {
		return authdomain.ErrInvalidCredentials
	}
	if len(next) < 8 {
		return authdomain.ErrInvalidCredentials
	}

	hashed, err := password.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdateFields(ctx, id, map[string]any{
		"password_hash": hashed,
		"updated_at":    time.Now().UTC(),
	})
}

func (s *Service) SetupTOTP(ctx context.Context, id snowflake.ID) (*authdomain.TOTPSetup, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, authdomain.ErrTOTPAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.appName,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, err
	}

	// The secret is stored immediately but two factor stays off until
	// the user confirms a valid code via EnableTOTP.
	if err := s.repo.UpdateFields(ctx, id, map[string]any{
		"totp_secret": key.Secret(),
		"updated_at":  time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	return &authdomain.TOTPSetup{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
	}, nil
}

func (s *Service) EnableTOTP(ctx context.Context, id snowflake.ID, code string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.TOTPEnabled {
		return authdomain.ErrTOTPAlreadyEnabled
	}
	if user.TOTPSecret == "" || !totp.Validate(strings.TrimSpace(code), user.TOTPSecret) {
		return authdomain.ErrTOTPInvalid
	}

	return s.repo.UpdateFields(ctx, id, map[string]any{
		"totp_enabled": true,
		"updated_at":   time.Now().UTC(),
	})
}

func (s *Service) DisableTOTP(ctx context.Context, id snowflake.ID, code string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled {
		return authdomain.ErrTOTPNotEnabled
	}
	if !totp.Validate(strings.TrimSpace(code), user.TOTPSecret) {
		return authdomain.ErrTOTPInvalid
	}

	return s.repo.UpdateFields(ctx, id, map[string]any{
		"totp_enabled": false,
		"totp_secret":  "",
		"updated_at":   time.Now().UTC(),
	})
}
