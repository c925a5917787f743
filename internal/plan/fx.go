package plan

import (
	"github.com/stegashield/stegashield/internal/plan/repository"
	"github.com/stegashield/stegashield/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
