package imgur

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Credential is a bearer token and the instant it stops being valid.
// A zero Expiry never expires.
type Credential struct {
	AccessToken string
	Expiry      time.Time
}

func (c *Credential) validAt(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || now.Before(c.Expiry)
}

// SessionConfig configures a Session.
type SessionConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// AccessToken is used as-is when RefreshToken is empty.
	AccessToken string
	TokenURL    string
	HTTPClient  *http.Client
}

// Session obtains and caches the bearer credential for the bot account.
type Session struct {
	conf       oauth2.Config
	static     string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.Mutex
	refreshTok string
	credential *Credential
}

// NewSession creates a session. Nothing is fetched until the first Token call.
func NewSession(log *slog.Logger, cfg SessionConfig) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		conf: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		static:     cfg.AccessToken,
		httpClient: cfg.HTTPClient,
		refreshTok: cfg.RefreshToken,
		logger:     log.With(slog.String("service", "imgur_session")),
	}
}

// Token returns the cached access token if it is still valid at now, and otherwise
// exchanges the refresh token for a new one. Failures wrap ErrAuth.
func (s *Session) Token(ctx context.Context, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.credential.validAt(now) {
		return s.credential.AccessToken, nil
	}
	if s.refreshTok == "" {
		if s.static != "" {
			return s.static, nil
		}
		return "", fmt.Errorf("%w: no refresh token or access token configured", ErrAuth)
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	tok, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: s.refreshTok}).Token()
	if err != nil {
		s.logger.Error("refresh token exchange failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %w", ErrAuth, err)
	}

	cred := &Credential{AccessToken: tok.AccessToken}
	if lifetime := tokenLifetime(tok, time.Now()); lifetime > 0 {
		cred.Expiry = now.Add(lifetime)
	}
	s.credential = cred
	if tok.RefreshToken != "" {
		s.refreshTok = tok.RefreshToken
	}
	s.logger.Info("access token refreshed", slog.Time("expiry", cred.Expiry))
	return cred.AccessToken, nil
}

// tokenLifetime returns the server-reported expires_in of tok.
func tokenLifetime(tok *oauth2.Token, wallNow time.Time) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	}
	if !tok.Expiry.IsZero() {
		return tok.Expiry.Sub(wallNow)
	}
	return 0
}
