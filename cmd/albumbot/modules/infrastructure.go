package modules

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/albumbot/internal/config"
	"github.com/memohai/albumbot/internal/logger"
)

var InfrastructureModule = fx.Module(
	"infrastructure",
	fx.Provide(
		provideLogger,
	),
)

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}
