// Package channel defines the normalized chat payloads exchanged between platform
// adapters and the command handlers.
package channel

import (
	"strings"
	"time"

	"github.com/memohai/albumbot/internal/media"
)

// Identity is the author of an inbound event.
type Identity struct {
	ID          string
	DisplayName string
	IsBot       bool
}

// Attachment is a file attached to a message or passed as a command option.
type Attachment struct {
	URL         string
	Name        string
	ContentType string
	Size        int64
}

// Kind classifies the attachment by its reported content type.
func (a Attachment) Kind() media.Kind {
	return media.KindFromContentType(a.ContentType)
}

// Filename is the local name the attachment is saved under: the platform-reported
// name, or the last segment of its URL.
func (a Attachment) Filename() string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return media.FilenameFromURL(a.URL)
}

// InboundMessage is a plain chat message.
type InboundMessage struct {
	ID          string
	ChannelID   string
	GuildID     string
	Sender      Identity
	Text        string
	Attachments []Attachment
	ReceivedAt  time.Time
}

// Command is an invoked slash command with its resolved options.
type Command struct {
	Name        string
	ChannelID   string
	GuildID     string
	Sender      Identity
	Options     map[string]string
	Attachments map[string]Attachment
}

// Option returns the trimmed string option name, or "".
func (c Command) Option(name string) string {
	if c.Options == nil {
		return ""
	}
	return strings.TrimSpace(c.Options[name])
}

// Attachment returns the attachment option name.
func (c Command) Attachment(name string) (Attachment, bool) {
	att, ok := c.Attachments[name]
	return att, ok
}
