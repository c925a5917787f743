package audit

import (
	"github.com/stegashield/stegashield/internal/audit/repository"
	"github.com/stegashield/stegashield/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
