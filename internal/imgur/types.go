package imgur

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuth is returned when no bearer credential can be obtained.
	ErrAuth = errors.New("imgur: authorization failed")
	// ErrNotFound matches APIErrors with a 404 status (missing or private album).
	ErrNotFound = errors.New("imgur: not found")
)

// Image is an image or video hosted on Imgur.
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Link        string `json:"link"`
	DeleteHash  string `json:"deletehash,omitempty"`
}

// Album is the read view of an Imgur album.
type Album struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Privacy     string  `json:"privacy"`
	AccountURL  string  `json:"account_url"`
	Link        string  `json:"link"`
	ImagesCount int     `json:"images_count"`
	Images      []Image `json:"images"`
}

// ImageIDs returns the ids of the album's images in album order.
func (a Album) ImageIDs() []string {
	ids := make([]string, 0, len(a.Images))
	for _, img := range a.Images {
		ids = append(ids, img.ID)
	}
	return ids
}

// envelope wraps every Imgur API response.
type envelope[T any] struct {
	Data    T    `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

type errorData struct {
	Error json.RawMessage `json:"error"`
}

// message extracts the error text; Imgur sends either a string or {"message": ...}.
func (d errorData) message() string {
	if len(d.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Error, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(d.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(d.Error))
}

// APIError reports a non-2xx response from the Imgur API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("imgur: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("imgur: %s %s: status %d", e.Method, e.Path, e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
