package api

import (
	"net/http"
	"time"

	"github.com/mycelian/nurture-tracker/internal/api/respond"
)

// HealthSource reports aggregated and per-component health.
type HealthSource interface {
	IsHealthy() bool
	Components() map[string]bool
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	src HealthSource
}

func NewHealthHandler(src HealthSource) *HealthHandler { return &HealthHandler{src: src} }

// CheckHealth handles GET /api/health.
// Always returns 200; body reports healthy/unhealthy and component states.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	var components map[string]bool
	if h.src != nil {
		if h.src.IsHealthy() {
			status = "healthy"
		}
		components = h.src.Components()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
