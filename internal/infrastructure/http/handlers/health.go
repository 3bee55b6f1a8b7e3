// Package handlers holds the operational endpoints of the local API.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readinessTimeout = 3 * time.Second

// HealthHandler serves GET /health. It only proves the process answers.
type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

type livenessResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionStatus reports whether a long-lived connection is up.
type ConnectionStatus interface {
	IsConnected() bool
}

// HealthDependenciesHandler serves GET /health/ready. The session store must
// answer a ping; without it no request can be authenticated. The realtime
// channel is reported but never fails readiness, views keep working through
// reloads while it is down.
type HealthDependenciesHandler struct {
	sessions Pinger
	realtime ConnectionStatus
}

// NewHealthDependenciesHandler creates the readiness handler. realtime may be
// nil when no WebSocket endpoint is configured.
func NewHealthDependenciesHandler(sessions Pinger, realtime ConnectionStatus) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{sessions: sessions, realtime: realtime}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	store := ping(ctx, h.sessions)
	resp := readinessResponse{
		Status: "ok",
		Dependencies: map[string]dependencyStatus{
			"session_store": store,
			"realtime":      h.realtimeStatus(),
		},
	}

	code := http.StatusOK
	if store.Error != "" {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, resp)
}

func ping(ctx context.Context, p Pinger) dependencyStatus {
	if err := p.Ping(ctx); err != nil {
		return dependencyStatus{Status: "unhealthy", Error: err.Error()}
	}
	return dependencyStatus{Status: "ok"}
}

func (h *HealthDependenciesHandler) realtimeStatus() dependencyStatus {
	switch {
	case h.realtime == nil:
		return dependencyStatus{Status: "disabled"}
	case h.realtime.IsConnected():
		return dependencyStatus{Status: "connected"}
	default:
		return dependencyStatus{Status: "disconnected"}
	}
}
