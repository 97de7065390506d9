package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	logger    *slog.Logger
	startedAt time.Time

	// sessionCount reports the number of open ticket sessions. May be nil.
	sessionCount func() int
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// WithSessionCount wires a callback reporting the number of open ticket
// sessions, included in the health payload.
func (h *HealthHandler) WithSessionCount(fn func() int) *HealthHandler {
	h.sessionCount = fn
	return h
}

// HealthCheck responds with the service status, uptime, and open ticket
// count.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(h.startedAt).Seconds())
	if uptime < 0 {
		uptime = 0
	}

	payload := map[string]any{
		"status":         "ok",
		"service":        "orderpad",
		"uptime_seconds": uptime,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}
	if h.sessionCount != nil {
		payload["open_tickets"] = h.sessionCount()
	}

	writeJSON(w, http.StatusOK, payload)
}
