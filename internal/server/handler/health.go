package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports liveness of a backing dependency. The redis cache client
// satisfies it; nil disables the dependency check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	cache  Pinger
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. cache may be nil.
func NewHealthHandler(cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: cache, logger: logger}
}

// HealthCheck responds with the service status and, when a cache is
// configured, whether it is reachable.
// GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			h.logger.Warn("cache unreachable", "error", err)
			resp["cache"] = "unreachable"
		} else {
			resp["cache"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
