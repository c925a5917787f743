package payment

import (
	"github.com/stegashield/stegashield/internal/config"
	"github.com/stegashield/stegashield/internal/payment/domain"
	"github.com/stegashield/stegashield/internal/payment/gateway/daraja"
	"github.com/stegashield/stegashield/internal/payment/repository"
	paymentservice "github.com/stegashield/stegashield/internal/payment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(cfg config.Config, log *zap.Logger) domain.Gateway {
		return daraja.NewClient(cfg.Mpesa, log)
	}),
	fx.Provide(paymentservice.NewService),
	fx.Provide(paymentservice.NewSweeper),
	fx.Invoke(func(*paymentservice.Sweeper) {}),
)
