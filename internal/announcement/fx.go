package announcement

import (
	"github.com/stegashield/stegashield/internal/announcement/repository"
	"github.com/stegashield/stegashield/internal/announcement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("announcement.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
