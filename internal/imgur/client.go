// Package imgur is a small client for the parts of the Imgur v3 API the bot uses:
// token refresh, album reads and writes, and image/video upload.
package imgur

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
	"golang.org/x/time/rate"

	"github.com/memohai/albumbot/internal/version"
)

// TokenSource yields bearer tokens for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context, now time.Time) (string, error)
}

// Options configures a Client.
type Options struct {
	ClientID     string
	APIBaseURL   string
	HTTPClient   *http.Client
	DisableAudio bool
}

// Client calls the Imgur API. It is safe for concurrent use.
type Client struct {
	base         *sling.Sling
	clientID     string
	tokens       TokenSource
	disableAudio bool
	now          func() time.Time
	logger       *slog.Logger
}

// NewClient creates a client. Authenticated calls take their bearer token from tokens.
func NewClient(log *slog.Logger, opts Options, tokens TokenSource) *Client {
	if log == nil {
		log = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL := strings.TrimSpace(opts.APIBaseURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		base:         sling.New().Client(httpClient).Base(baseURL).Set("User-Agent", version.UserAgent()),
		clientID:     opts.ClientID,
		tokens:       tokens,
		disableAudio: opts.DisableAudio,
		now:          time.Now,
		logger:       log.With(slog.String("service", "imgur")),
	}
}

type clientIDParam struct {
	ClientID string `url:"client_id,omitempty"`
}

// public returns a request builder authorized with the application's Client-ID.
func (c *Client) public() *sling.Sling {
	return c.base.New().Set("Authorization", "Client-ID "+c.clientID)
}

// authed returns a request builder authorized with the bot account's bearer token.
func (c *Client) authed(ctx context.Context) (*sling.Sling, error) {
	token, err := c.tokens.Token(ctx, c.now())
	if err != nil {
		return nil, err
	}
	return c.base.New().Set("Authorization", "Bearer "+token), nil
}

// do sends the request built by s and decodes the response data into T.
// Non-2xx responses become *APIError.
func do[T any](ctx context.Context, s *sling.Sling, method, path string) (T, error) {
	var (
		ok   envelope[T]
		fail envelope[errorData]
		zero T
	)
	req, err := s.Request()
	if err != nil {
		return zero, err
	}
	req = req.WithContext(ctx)
	resp, err := s.Do(req, &ok, &fail)
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return zero, &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: fail.Data.message(),
		}
	}
	if err != nil {
		return zero, err
	}
	return ok.Data, nil
}

// NewHTTPClient returns the client shared by all Imgur calls: requests are paced by a
// token bucket of rps requests per second and each is bounded by timeout.
// rps <= 0 disables pacing.
func NewHTTPClient(timeout time.Duration, rps float64, burst int) *http.Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &limitedTransport{
			limiter: rate.NewLimiter(limit, burst),
			next:    http.DefaultTransport,
		},
	}
}

type limitedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
