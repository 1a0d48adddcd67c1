package modules

import (
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	"github.com/memohai/albumbot/internal/album"
	"github.com/memohai/albumbot/internal/commands"
	"github.com/memohai/albumbot/internal/config"
	"github.com/memohai/albumbot/internal/imgur"
	"github.com/memohai/albumbot/internal/transfer"
)

// ImgurModule provides everything needed to run commands, without any chat transport.
var ImgurModule = fx.Module(
	"imgur",
	fx.Provide(
		provideImgurHTTPClient,
		provideSession,
		provideImgurClient,
		provideAlbumService,
		provideDownloader,
		provideCommandHandler,
	),
)

// ---------------------------------------------------------------------------
// imgur providers
// ---------------------------------------------------------------------------

func provideImgurHTTPClient(cfg config.Config) *http.Client {
	return imgur.NewHTTPClient(cfg.Imgur.Timeout, cfg.Imgur.RequestsPerSecond, cfg.Imgur.Burst)
}

func provideSession(log *slog.Logger, cfg config.Config, client *http.Client) *imgur.Session {
	return imgur.NewSession(log, imgur.SessionConfig{
		ClientID:     cfg.Imgur.ClientID,
		ClientSecret: cfg.Imgur.ClientSecret,
		RefreshToken: cfg.Imgur.RefreshToken,
		AccessToken:  cfg.Imgur.AccessToken,
		TokenURL:     cfg.Imgur.TokenURL,
		HTTPClient:   client,
	})
}

func provideImgurClient(log *slog.Logger, cfg config.Config, client *http.Client, session *imgur.Session) *imgur.Client {
	return imgur.NewClient(log, imgur.Options{
		ClientID:     cfg.Imgur.ClientID,
		APIBaseURL:   cfg.Imgur.APIBaseURL,
		HTTPClient:   client,
		DisableAudio: cfg.Imgur.DisableAudio,
	}, session)
}

func provideAlbumService(log *slog.Logger, cfg config.Config, client *imgur.Client) *album.Service {
	return album.NewService(log, client, cfg.Imgur.Username)
}

// provideDownloader uses its own client: attachment CDNs are not paced by the Imgur limiter.
func provideDownloader(log *slog.Logger, cfg config.Config) *transfer.Downloader {
	return transfer.NewDownloader(log, &http.Client{Timeout: cfg.Imgur.Timeout})
}

func provideCommandHandler(log *slog.Logger, cfg config.Config, albums *album.Service, client *imgur.Client, downloader *transfer.Downloader) *commands.Handler {
	return commands.NewHandler(log, albums, client, downloader, cfg.Scratch.Root)
}
