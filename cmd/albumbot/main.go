package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/albumbot/cmd/albumbot/modules"
	"github.com/memohai/albumbot/internal/commands"
	"github.com/memohai/albumbot/internal/config"
	"github.com/memohai/albumbot/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           version.Name,
		Short:         "Discord bot that uploads attachments into Imgur albums",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	defaultConfig := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if defaultConfig == "" {
		defaultConfig = config.DefaultConfigPath
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to config.toml")

	root.AddCommand(
		newServeCmd(&configPath),
		newCloneCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and handle commands until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Starting %s %s\n", version.Name, version.GetInfo())
			fx.New(serveOptions(cfg)...).Run()
			return nil
		},
	}
}

func serveOptions(cfg config.Config) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		modules.InfrastructureModule,
		modules.ImgurModule,
		modules.ChannelModule,
		modules.ServerModule,
		modules.ScratchModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	}
}

func newCloneCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clone <album-url> <new-title>",
		Short: "Copy an Imgur album into a new album owned by the bot",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Imgur.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			var handler *commands.Handler
			app := fx.New(
				fx.Supply(cfg),
				modules.InfrastructureModule,
				modules.ImgurModule,
				fx.Populate(&handler),
				fx.NopLogger,
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res, err := handler.CloneAlbum(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func printResult(w io.Writer, res commands.Result) error {
	if _, err := fmt.Fprintln(w, res.Message); err != nil {
		return err
	}
	for _, o := range res.Outcomes {
		if o.OK() {
			fmt.Fprintf(w, "  ok       %s -> %s\n", o.Source, o.ImageID)
			continue
		}
		fmt.Fprintf(w, "  skipped  %s: %v\n", o.Source, o.Err)
	}
	if res.Status == commands.StatusRejected {
		return fmt.Errorf("rejected: %s", res.Message)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.GetInfo())
			if version.BuildTime != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built %s\n", version.BuildTime)
			}
		},
	}
}

