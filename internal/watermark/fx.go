package watermark

import (
	"github.com/stegashield/stegashield/internal/watermark/repository"
	"github.com/stegashield/stegashield/internal/watermark/service"
	"go.uber.org/fx"
)

var Module = fx.Module("watermark.service",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
