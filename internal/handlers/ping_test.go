package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *PingHandler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.Register(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestPing(t *testing.T) {
	h := NewPingHandler(nil, nil)

	rec := serve(t, h, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, h, http.MethodHead, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHealthReportsFailingProbe(t *testing.T) {
	h := NewPingHandler(nil, map[string]Probe{
		"discord": func(context.Context) error { return errors.New("discord not connected") },
		"scratch": func(context.Context) error { return nil },
	})

	rec := serve(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"discord": "discord not connected", "scratch": "ok"}, body.Checks)
}

func TestHealthOK(t *testing.T) {
	h := NewPingHandler(nil, map[string]Probe{
		"discord": func(context.Context) error { return nil },
	})
	rec := serve(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"discord":"ok"}}`, rec.Body.String())
}

func TestVersion(t *testing.T) {
	rec := serve(t, NewPingHandler(nil, nil), http.MethodGet, "/version")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "albumbot", body["name"])
	assert.NotEmpty(t, body["version"])
}
