package api

import (
	"net/http"
	"time"

	"github.com/daybook-edu/daybook/internal/events"
	"github.com/daybook-edu/daybook/internal/semantic"
	"github.com/daybook-edu/daybook/internal/store"
)

// HealthHandler provides health and stats endpoints.
type HealthHandler struct {
	db        *store.DB
	svc       *semantic.Service
	bus       *events.Client
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *store.DB, svc *semantic.Service, bus *events.Client) *HealthHandler {
	return &HealthHandler{
		db:        db,
		svc:       svc,
		bus:       bus,
		startTime: time.Now(),
	}
}

// Health returns the service health status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "connected"
	if err := h.db.HealthCheck(ctx); err != nil {
		dbStatus = "disconnected"
	}

	busStatus := "disconnected"
	if h.bus != nil && h.bus.IsConnected() {
		busStatus = "connected"
	}

	resp := map[string]any{
		"status":         "healthy",
		"database":       dbStatus,
		"events":         busStatus,
		"embeddings":     h.svc.Available(),
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}

	if dbStatus == "disconnected" {
		resp["status"] = "degraded"
	}

	writeJSON(w, http.StatusOK, resp)
}

// Stats returns detailed service statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_expectations":    status.TotalExpectations,
		"embedded_expectations": status.EmbeddedExpectations,
		"missing_embeddings":    status.MissingEmbeddings,
		"model":                 status.Model,
		"uptime_seconds":        int(time.Since(h.startTime).Seconds()),
	})
}
