package modules

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/fx"

	"github.com/memohai/albumbot/internal/config"
	"github.com/memohai/albumbot/internal/schedule"
	"github.com/memohai/albumbot/internal/scratch"
)

const sweepJob = "scratch-sweep"

var ScratchModule = fx.Module(
	"scratch",
	fx.Provide(
		provideSweeper,
		schedule.NewService,
	),
	fx.Invoke(startSweeper),
)

func provideSweeper(log *slog.Logger, cfg config.Config) *scratch.Sweeper {
	return scratch.NewSweeper(log, cfg.Scratch.Root, cfg.Scratch.MaxAge)
}

func startSweeper(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config, scheduler *schedule.Service, sweeper *scratch.Sweeper) error {
	pattern := strings.TrimSpace(cfg.Scratch.SweepSchedule)
	if pattern == "" || cfg.Scratch.MaxAge <= 0 {
		logger.Info("scratch sweeper disabled")
		return nil
	}
	sweep := func(ctx context.Context) error {
		_, err := sweeper.Sweep(ctx)
		return err
	}
	if err := scheduler.Add(sweepJob, pattern, sweep); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if n, err := sweeper.Sweep(ctx); err != nil {
				logger.Warn("initial scratch sweep failed", slog.Any("error", err))
			} else if n > 0 {
				logger.Info("initial scratch sweep", slog.Int("removed", n))
			}
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
	return nil
}
