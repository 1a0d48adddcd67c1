// Package media classifies attachments and files into the kinds the image host accepts.
package media

import (
	"path"
	"strings"
)

// Kind classifies a media asset for upload encoding.
type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindUnsupported Kind = "unsupported"
)

// Supported reports whether assets of this kind can be uploaded.
func (k Kind) Supported() bool {
	return k == KindImage || k == KindVideo
}

// VideoExtensions lists the filename suffixes uploaded through the video path.
var VideoExtensions = []string{".mp4", ".mpeg", ".avi", ".webm", ".quicktime", ".mkv", ".flv"}

// KindFromFilename returns KindVideo for known video extensions and KindImage otherwise.
// Matching is a case-sensitive suffix match.
func KindFromFilename(name string) Kind {
	for _, ext := range VideoExtensions {
		if strings.HasSuffix(name, ext) {
			return KindVideo
		}
	}
	return KindImage
}

// KindFromContentType classifies an attachment by its reported MIME type. Any type
// mentioning "image" or "video" is accepted, mirroring how chat platforms report
// e.g. "image/png" or "video/quicktime".
func KindFromContentType(contentType string) Kind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.Contains(ct, "image"):
		return KindImage
	case strings.Contains(ct, "video"):
		return KindVideo
	default:
		return KindUnsupported
	}
}

// FilenameFromURL returns the last path segment of a URL, without query or fragment.
func FilenameFromURL(raw string) string {
	value := strings.TrimSpace(raw)
	if idx := strings.IndexAny(value, "?#"); idx >= 0 {
		value = value[:idx]
	}
	name := path.Base(value)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
