package ticket

import (
	"github.com/stegashield/stegashield/internal/ticket/repository"
	"github.com/stegashield/stegashield/internal/ticket/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ticket.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
