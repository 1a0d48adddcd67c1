package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/albumbot/internal/album"
	"github.com/memohai/albumbot/internal/channel"
	"github.com/memohai/albumbot/internal/imgur"
	"github.com/memohai/albumbot/internal/logger"
	"github.com/memohai/albumbot/internal/media"
	"github.com/memohai/albumbot/internal/scratch"
	"github.com/memohai/albumbot/internal/transfer"
)

var (
	createAlbumPattern = regexp.MustCompile(`^!create album (\w+( \w+)*)`)
	botClaimPattern    = regexp.MustCompile(`(?i)^m{1,13}is{1,2} is (a )?bot`)
)

// Handler runs commands. Each call is independent; no state is kept between calls.
type Handler struct {
	albums      Albums
	uploader    Uploader
	downloader  Downloader
	scratchRoot string
	now         func() time.Time
	logger      *slog.Logger
}

// NewHandler creates a handler storing batch scratch directories under scratchRoot.
func NewHandler(log *slog.Logger, albums Albums, uploader Uploader, downloader Downloader, scratchRoot string) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		albums:      albums,
		uploader:    uploader,
		downloader:  downloader,
		scratchRoot: scratchRoot,
		now:         time.Now,
		logger:      log.With(slog.String("service", "commands")),
	}
}

// begin tags ctx with an invocation-scoped logger.
func (h *Handler) begin(ctx context.Context, command string) (context.Context, *slog.Logger) {
	log := h.logger.With(
		slog.String("command", command),
		slog.String("invocation_id", uuid.NewString()),
	)
	return logger.WithContext(ctx, log), log
}

// Run dispatches a slash command by name.
func (h *Handler) Run(ctx context.Context, cmd channel.Command) (Result, error) {
	switch cmd.Name {
	case CommandAddImage:
		att, ok := cmd.Attachment(OptionImage)
		if !ok {
			return Rejected(MsgMissingAttachment), nil
		}
		return h.AddImageToAlbum(ctx, AddImageInput{
			AlbumURL:    cmd.Option(OptionAlbumURL),
			Attachment:  att,
			Description: cmd.Option(OptionDescription),
		})
	case CommandClone:
		return h.CloneAlbum(ctx, cmd.Option(OptionAlbumURL), cmd.Option(OptionNewAlbumTitle))
	default:
		return Rejected(MsgUnknownCommand), nil
	}
}

// HandleMessage reacts to plain chat messages. The boolean is false when the message
// is not addressed to the bot.
func (h *Handler) HandleMessage(ctx context.Context, msg channel.InboundMessage) (Result, bool, error) {
	if msg.Sender.IsBot || strings.TrimSpace(msg.Text) == "" {
		return Result{}, false, nil
	}
	if createAlbumPattern.MatchString(msg.Text) {
		res, err := h.CreateAlbumFromAttachments(ctx, msg)
		return res, true, err
	}
	if botClaimPattern.MatchString(msg.Text) {
		return completed(MsgBotConfirmation, "", nil), true, nil
	}
	return Result{}, false, nil
}

// AddImageInput is the argument set of the add_image_to_album command.
type AddImageInput struct {
	AlbumURL    string
	Attachment  channel.Attachment
	Description string
}

// AddImageToAlbum uploads one attachment and appends it to an album the bot owns.
func (h *Handler) AddImageToAlbum(ctx context.Context, in AddImageInput) (Result, error) {
	ctx, log := h.begin(ctx, CommandAddImage)

	albumID, ok := album.ParseURL(in.AlbumURL)
	if !ok {
		return Rejected(MsgInvalidAlbumURL), nil
	}
	if !in.Attachment.Kind().Supported() {
		return Rejected(MsgUnsupportedMedia), nil
	}

	target, err := h.albums.Fetch(ctx, albumID)
	if err != nil {
		return Result{}, err
	}
	if err := h.albums.EnsureOwned(target); err != nil {
		return Rejected(MsgNotOwned), nil
	}

	dir, err := scratch.New(h.scratchRoot, h.now())
	if err != nil {
		return Result{}, err
	}
	defer h.closeDir(ctx, dir)

	imageID, err := h.transfer(ctx, dir, in.Attachment.URL, in.Attachment.Filename(), in.Description)
	if err != nil {
		return Result{}, err
	}
	if err := h.albums.Attach(ctx, albumID, []string{imageID}); err != nil {
		return Result{}, err
	}
	log.Info("album updated", slog.String("album_id", albumID), slog.String("image_id", imageID))
	outcomes := []ItemOutcome{{Source: in.Attachment.URL, ImageID: imageID}}
	return completed(fmt.Sprintf(msgAlbumUpdated, album.URL(albumID)), albumID, outcomes), nil
}

// CreateAlbumFromAttachments handles "!create album <title>": every image or video
// attached to the message is uploaded into a new album.
func (h *Handler) CreateAlbumFromAttachments(ctx context.Context, msg channel.InboundMessage) (Result, error) {
	ctx, log := h.begin(ctx, CommandCreate)

	if len(msg.Attachments) == 0 {
		return Rejected(MsgNoAttachments), nil
	}
	var supported []channel.Attachment
	for _, att := range msg.Attachments {
		if att.Kind().Supported() {
			supported = append(supported, att)
		}
	}
	if len(supported) == 0 {
		return Rejected(MsgNoSupportedMedia), nil
	}
	title := albumTitle(msg.Text)

	dir, err := scratch.New(h.scratchRoot, h.now())
	if err != nil {
		return Result{}, err
	}
	defer h.closeDir(ctx, dir)

	ids := make([]string, 0, len(supported))
	outcomes := make([]ItemOutcome, 0, len(supported))
	for _, att := range supported {
		imageID, err := h.transfer(ctx, dir, att.URL, att.Filename(), "")
		if err != nil {
			return Result{}, err
		}
		ids = append(ids, imageID)
		outcomes = append(outcomes, ItemOutcome{Source: att.URL, ImageID: imageID})
	}

	albumID, err := h.albums.Create(ctx, title, ids)
	if err != nil {
		return Result{}, err
	}
	log.Info("album created from attachments", slog.String("album_id", albumID), slog.Int("images", len(ids)))
	return completed(fmt.Sprintf(msgAlbumUploaded, album.URL(albumID)), albumID, outcomes), nil
}

// albumTitle drops the "!create album" prefix words.
func albumTitle(text string) string {
	words := strings.Fields(text)
	if len(words) <= 2 {
		return ""
	}
	return strings.Join(words[2:], " ")
}

// CloneAlbum copies every image of the album at albumURL into a new album titled title.
// Images that fail to download or upload are skipped and reported.
func (h *Handler) CloneAlbum(ctx context.Context, albumURL, title string) (Result, error) {
	ctx, log := h.begin(ctx, CommandClone)

	albumID, ok := album.ParseURL(albumURL)
	if !ok {
		return Rejected(MsgInvalidAlbumURL), nil
	}
	source, err := h.albums.Fetch(ctx, albumID)
	if err != nil {
		return Result{}, err
	}

	dir, err := scratch.New(h.scratchRoot, h.now())
	if err != nil {
		return Result{}, err
	}
	defer h.closeDir(ctx, dir)

	var ids []string
	outcomes := make([]ItemOutcome, 0, len(source.Images))
	for _, img := range source.Images {
		imageID, err := h.transfer(ctx, dir, img.Link, media.FilenameFromURL(img.Link), img.Description)
		if err != nil {
			if !skippable(ctx, err) {
				return Result{}, err
			}
			log.Warn("clone item skipped", slog.String("source", img.Link), slog.Any("error", err))
			outcomes = append(outcomes, ItemOutcome{Source: img.Link, Err: err})
			continue
		}
		ids = append(ids, imageID)
		outcomes = append(outcomes, ItemOutcome{Source: img.Link, ImageID: imageID})
	}

	newID, err := h.albums.Create(ctx, title, ids)
	if err != nil {
		return Result{}, err
	}
	res := completed("", newID, outcomes)
	res.Message = fmt.Sprintf(msgAlbumCloned, album.URL(newID), res.Uploaded(), res.Skipped())
	log.Info("album cloned",
		slog.String("source_album_id", albumID),
		slog.String("album_id", newID),
		slog.Int("uploaded", res.Uploaded()),
		slog.Int("skipped", res.Skipped()),
	)
	return res, nil
}

// transfer downloads src into dir, uploads it and removes the local copy whatever the
// outcome.
func (h *Handler) transfer(ctx context.Context, dir *scratch.Dir, src, name, description string) (string, error) {
	local := dir.File(name)
	defer func() {
		if err := dir.Remove(local); err != nil {
			logger.FromContext(ctx).Warn("remove scratch file failed", slog.String("path", local), slog.Any("error", err))
		}
	}()

	if err := h.downloader.Download(ctx, src, local); err != nil {
		return "", err
	}
	return h.uploader.Upload(ctx, imgur.UploadInput{
		Path:        local,
		Description: description,
		Name:        filepath.Base(local),
	})
}

func (h *Handler) closeDir(ctx context.Context, dir *scratch.Dir) {
	if err := dir.Close(); err != nil {
		logger.FromContext(ctx).Error("remove scratch dir failed", slog.String("path", dir.Path()), slog.Any("error", err))
	}
}

// skippable reports whether a per-item failure in a batch is an HTTP failure that
// only affects that item. Cancellation, auth and filesystem failures abort the batch.
func skippable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, imgur.ErrAuth) {
		return false
	}
	var (
		apiErr  *imgur.APIError
		httpErr *transfer.HTTPError
		urlErr  *url.Error
	)
	return errors.As(err, &apiErr) || errors.As(err, &httpErr) || errors.As(err, &urlErr)
}
