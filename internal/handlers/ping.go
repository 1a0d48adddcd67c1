// Package handlers holds the bot's HTTP handlers.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/albumbot/internal/version"
)

const probeTimeout = 5 * time.Second

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// PingHandler serves /ping, /health and /version.
type PingHandler struct {
	probes map[string]Probe
	logger *slog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewPingHandler creates a ping handler. probes are run by GET /health.
func NewPingHandler(log *slog.Logger, probes map[string]Probe) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{probes: probes, logger: log.With(slog.String("handler", "ping"))}
}

// Register mounts the routes on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
	e.GET("/health", h.Health)
	e.GET("/version", h.Version)
}

// Ping returns 200 JSON {"status":"ok"}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// PingHead returns 200 No Content for liveness checks.
func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Health runs every probe and returns 503 if any fails.
func (h *PingHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), probeTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: map[string]string{}}
	code := http.StatusOK
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			h.logger.Warn("health probe failed", slog.String("probe", name), slog.Any("error", err))
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.JSON(code, resp)
}

// Version returns build information.
func (h *PingHandler) Version(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":    version.Name,
		"version": version.GetInfo(),
	})
}
