package observability

import (
	"github.com/stegashield/stegashield/internal/config"
	"github.com/stegashield/stegashield/internal/observability/logger"
	"github.com/stegashield/stegashield/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		metrics.New,
	),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.AppName,
		Environment:         cfg.Environment,
		Version:             cfg.AppVersion,
		Level:               "info",
		Format:              logFormat(cfg),
		IncludeCaller:       true,
		IncludeStackOnError: !cfg.IsProduction(),
	}
}

func logFormat(cfg config.Config) string {
	if cfg.IsProduction() {
		return "json"
	}
	return "console"
}
