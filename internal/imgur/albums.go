package imgur

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// PrivacyHidden keeps albums out of public listings.
const PrivacyHidden = "hidden"

// Album fetches album metadata and its images using the application's Client-ID.
func (c *Client) Album(ctx context.Context, id string) (Album, error) {
	path := "album/" + url.PathEscape(id)
	album, err := do[Album](ctx, c.public().Get(path), http.MethodGet, path)
	if err != nil {
		return Album{}, fmt.Errorf("get album %s: %w", id, err)
	}
	return album, nil
}

type createAlbumForm struct {
	Title   string   `url:"title,omitempty"`
	Privacy string   `url:"privacy"`
	IDs     []string `url:"ids[],omitempty"`
}

// CreateAlbum creates a hidden album owned by the bot account containing imageIDs,
// and returns its id.
func (c *Client) CreateAlbum(ctx context.Context, title string, imageIDs []string) (string, error) {
	s, err := c.authed(ctx)
	if err != nil {
		return "", err
	}
	const path = "album"
	form := createAlbumForm{Title: title, Privacy: PrivacyHidden, IDs: imageIDs}
	created, err := do[Album](ctx, s.Post(path).BodyForm(form), http.MethodPost, path)
	if err != nil {
		return "", fmt.Errorf("create album: %w", err)
	}
	c.logger.Info("album created", slog.String("album_id", created.ID), slog.Int("images", len(imageIDs)))
	return created.ID, nil
}

type addImagesForm struct {
	IDs []string `url:"ids[]"`
}

// AddToAlbum appends imageIDs to an existing album owned by the bot account.
func (c *Client) AddToAlbum(ctx context.Context, albumID string, imageIDs []string) error {
	s, err := c.authed(ctx)
	if err != nil {
		return err
	}
	path := "album/" + url.PathEscape(albumID) + "/add"
	if _, err := do[bool](ctx, s.Post(path).BodyForm(addImagesForm{IDs: imageIDs}), http.MethodPost, path); err != nil {
		return fmt.Errorf("add to album %s: %w", albumID, err)
	}
	c.logger.Info("images added to album", slog.String("album_id", albumID), slog.Int("images", len(imageIDs)))
	return nil
}
