package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/dittodrive/pkg/store"
)

// HealthCheckTimeout is the maximum time allowed for health check operations.
// This timeout applies to the database ping so a stalled store cannot block
// health probes indefinitely.
const HealthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the database reachable?
type HealthHandler struct {
	store     store.Store
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
//
// The store parameter may be nil, in which case the readiness check reports
// unhealthy status.
func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{
		store:     st,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health and GET /health/live - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "dittodrive",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Pings the metadata database; returns 200 OK when it responds within
// HealthCheckTimeout, 503 Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.Healthcheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"database": map[string]interface{}{
			"status":  "healthy",
			"latency": time.Since(start).String(),
		},
	}))
}
