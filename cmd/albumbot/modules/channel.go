package modules

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/albumbot/internal/channel/adapters/discord"
	"github.com/memohai/albumbot/internal/commands"
	"github.com/memohai/albumbot/internal/config"
)

var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideDiscordAdapter,
	),
	fx.Invoke(startDiscordAdapter),
)

// ---------------------------------------------------------------------------
// channel providers
// ---------------------------------------------------------------------------

func provideDiscordAdapter(log *slog.Logger, cfg config.Config, handler *commands.Handler) (*discord.Adapter, error) {
	dcfg, err := discord.ParseConfig(cfg.Discord)
	if err != nil {
		return nil, err
	}
	return discord.NewAdapter(log, dcfg, handler), nil
}

func startDiscordAdapter(lc fx.Lifecycle, adapter *discord.Adapter) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return adapter.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return adapter.Stop(ctx)
		},
	})
}
