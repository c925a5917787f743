package auth

import (
	"github.com/stegashield/stegashield/internal/auth/repository"
	"github.com/stegashield/stegashield/internal/auth/service"
	"github.com/stegashield/stegashield/internal/auth/token"
	"github.com/stegashield/stegashield/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(func(cfg config.Config) (*token.Issuer, error) {
		return token.NewIssuer(cfg.AuthJWTSecret, cfg.AuthTokenTTL, cfg.AppName)
	}),
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
