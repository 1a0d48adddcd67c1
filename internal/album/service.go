package album

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/memohai/albumbot/internal/imgur"
)

// ErrNotOwned is returned by EnsureOwned for albums of other accounts.
var ErrNotOwned = errors.New("album is not owned by the bot")

// API is the subset of the image host client used for albums.
type API interface {
	Album(ctx context.Context, id string) (imgur.Album, error)
	CreateAlbum(ctx context.Context, title string, imageIDs []string) (string, error)
	AddToAlbum(ctx context.Context, albumID string, imageIDs []string) error
}

// Service performs album operations on behalf of the bot account.
type Service struct {
	api    API
	owner  string
	logger *slog.Logger
}

// NewService creates a service that treats owner as the bot's account name.
func NewService(log *slog.Logger, api API, owner string) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		api:    api,
		owner:  strings.TrimSpace(owner),
		logger: log.With(slog.String("service", "album")),
	}
}

// Fetch returns album metadata and images.
func (s *Service) Fetch(ctx context.Context, id string) (imgur.Album, error) {
	return s.api.Album(ctx, id)
}

// EnsureOwned returns ErrNotOwned unless the album belongs to the bot account.
func (s *Service) EnsureOwned(a imgur.Album) error {
	if s.owner == "" || a.AccountURL != s.owner {
		s.logger.Info("album ownership rejected", slog.String("album_id", a.ID), slog.String("owner", a.AccountURL))
		return ErrNotOwned
	}
	return nil
}

// Create makes a new hidden album already populated with imageIDs.
func (s *Service) Create(ctx context.Context, title string, imageIDs []string) (string, error) {
	return s.api.CreateAlbum(ctx, title, imageIDs)
}

// Attach appends imageIDs to an existing album.
func (s *Service) Attach(ctx context.Context, albumID string, imageIDs []string) error {
	return s.api.AddToAlbum(ctx, albumID, imageIDs)
}
