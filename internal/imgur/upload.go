package imgur

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/memohai/albumbot/internal/media"
)

// UploadInput describes a local file to upload.
type UploadInput struct {
	Path        string
	Description string
	Name        string
}

// Upload sends the file at in.Path to the bot account and returns the new image id.
// Files with a known video extension are sent as a raw video part; everything else is
// sent base64-encoded as an image.
func (c *Client) Upload(ctx context.Context, in UploadInput) (string, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	kind := media.KindFromFilename(in.Path)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if kind == media.KindVideo {
		err = c.writeVideoForm(mw, in, data)
	} else {
		err = writeImageForm(mw, in, data)
	}
	if err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("encode upload: %w", err)
	}

	s, err := c.authed(ctx)
	if err != nil {
		return "", err
	}
	const path = "upload"
	req := s.Post(path).
		QueryStruct(clientIDParam{ClientID: c.clientID}).
		Body(&body).
		Set("Content-Type", mw.FormDataContentType())
	img, err := do[Image](ctx, req, http.MethodPost, path)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", in.Name, err)
	}
	c.logger.Info("uploaded",
		slog.String("image_id", img.ID),
		slog.String("name", in.Name),
		slog.String("kind", string(kind)),
		slog.Int("bytes", len(data)),
	)
	return img.ID, nil
}

func writeImageForm(mw *multipart.Writer, in UploadInput, data []byte) error {
	fields := [][2]string{
		{"image", base64.StdEncoding.EncodeToString(data)},
		{"type", "base64"},
		{"description", in.Description},
		{"name", in.Name},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) writeVideoForm(mw *multipart.Writer, in UploadInput, data []byte) error {
	part, err := mw.CreateFormFile("video", in.Name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	disableAudio := "0"
	if c.disableAudio {
		disableAudio = "1"
	}
	if err := mw.WriteField("disable_audio", disableAudio); err != nil {
		return err
	}
	if in.Description != "" {
		if err := mw.WriteField("description", in.Description); err != nil {
			return err
		}
	}
	return mw.WriteField("name", in.Name)
}
