package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/store"
)

// HealthCheckTimeout is the maximum time allowed for health check operations.
const HealthCheckTimeout = 5 * time.Second

// healthResponse is the envelope for all health endpoints.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func healthy(data any) healthResponse {
	return healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

func unhealthy(errMsg string) healthResponse {
	return healthResponse{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     errMsg,
	}
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the database reachable?
//   - Blob health: Is the blob store configured and reachable?
type HealthHandler struct {
	store     store.Store
	blobs     blob.Store
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(st store.Store, blobs blob.Store) *HealthHandler {
	return &HealthHandler{
		store:     st,
		blobs:     blobs,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthy(map[string]any{
		"service":    "daylytics",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready - readiness probe.
// Returns 200 OK if the database is reachable.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthy(err.Error()))
		return
	}
	WriteJSONOK(w, healthy(map[string]any{"database": "reachable"}))
}

// healthChecker is implemented by blob stores that can probe their provider.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Blob handles GET /health/blob - blob store health.
//
// Reports "unconfigured" when no blob provider is set up, "unreachable"
// when the provider probe fails, and healthy otherwise.
func (h *HealthHandler) Blob(w http.ResponseWriter, r *http.Request) {
	if _, unconfigured := h.blobs.(blob.Unavailable); unconfigured {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthy("blob store not configured"))
		return
	}

	if checker, ok := h.blobs.(healthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
		defer cancel()

		if err := checker.HealthCheck(ctx); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, unhealthy(err.Error()))
			return
		}
	}
	WriteJSONOK(w, healthy(map[string]any{"provider": "reachable"}))
}
