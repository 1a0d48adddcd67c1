// Package commands implements the bot's user-facing operations: adding an image to an
// album, creating an album from message attachments, and cloning an album.
package commands

import (
	"context"

	"github.com/memohai/albumbot/internal/imgur"
)

// Slash command and option names.
const (
	CommandAddImage = "add_image_to_album"
	CommandClone    = "clone_album"
	CommandCreate   = "create_album"

	OptionAlbumURL      = "album_url"
	OptionImage         = "img"
	OptionDescription   = "img_description"
	OptionNewAlbumTitle = "new_album_title"
)

// User-facing replies.
const (
	MsgInvalidAlbumURL   = "Not a valid Imgur Album URL"
	MsgUnsupportedMedia  = "Not an image or video type."
	MsgNotOwned          = "The album is not owned by the bot."
	MsgNoAttachments     = "No Attachments Found"
	MsgNoSupportedMedia  = "No image or video attachments found."
	MsgMissingAttachment = "An image or video attachment is required."
	MsgUnknownCommand    = "Unknown command."
	MsgBotConfirmation   = "This is true. I can confirm. :robot:"
	msgAlbumUpdated      = "Album updated %s"
	msgAlbumUploaded     = "Album uploaded %s"
	msgAlbumCloned       = "Album uploaded %s. Uploaded items %d, Skipped items %d"
)

// Status tells whether a command ran or was turned away before mutating anything.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Result is the outcome of one command invocation.
type Result struct {
	Status  Status
	Message string
	// AlbumID is the album created or updated, if any.
	AlbumID string
	// Outcomes lists per-item results for batch commands.
	Outcomes []ItemOutcome
}

// Rejected builds a result for input the command refused.
func Rejected(reason string) Result {
	return Result{Status: StatusRejected, Message: reason}
}

func completed(message, albumID string, outcomes []ItemOutcome) Result {
	return Result{Status: StatusCompleted, Message: message, AlbumID: albumID, Outcomes: outcomes}
}

// Uploaded counts successful items.
func (r Result) Uploaded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Skipped counts failed items.
func (r Result) Skipped() int {
	return len(r.Outcomes) - r.Uploaded()
}

// ItemOutcome records what happened to one source item in a batch.
type ItemOutcome struct {
	Source  string
	ImageID string
	Err     error
}

// OK reports whether the item was uploaded.
func (o ItemOutcome) OK() bool { return o.Err == nil && o.ImageID != "" }

// Albums performs album reads and writes for the bot account.
type Albums interface {
	Fetch(ctx context.Context, id string) (imgur.Album, error)
	EnsureOwned(a imgur.Album) error
	Create(ctx context.Context, title string, imageIDs []string) (string, error)
	Attach(ctx context.Context, albumID string, imageIDs []string) error
}

// Uploader sends a local file to the image host.
type Uploader interface {
	Upload(ctx context.Context, in imgur.UploadInput) (string, error)
}

// Downloader fetches a remote file to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}
