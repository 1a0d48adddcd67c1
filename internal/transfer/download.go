// Package transfer downloads remote media to local scratch files.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/memohai/albumbot/internal/version"
)

// HTTPError reports a non-2xx response from a download source.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.Status)
}

// Downloader fetches URLs to local paths.
type Downloader struct {
	client *http.Client
	logger *slog.Logger
}

// NewDownloader creates a downloader. A nil client uses http.DefaultClient.
func NewDownloader(log *slog.Logger, client *http.Client) *Downloader {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client: client,
		logger: log.With(slog.String("service", "transfer")),
	}
}

// Download reads the whole body of url into memory and writes it to dest.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download %s: read body: %w", url, err)
	}
	if err := os.WriteFile(dest, data, 0o600); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	d.logger.Debug("downloaded", slog.String("url", url), slog.String("path", dest), slog.Int("bytes", len(data)))
	return nil
}
