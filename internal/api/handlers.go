package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/metrics"
)

// Handler serves cache observability and admin endpoints.
type Handler struct {
	Cache   *cache.Cache
	Metrics *metrics.Prometheus

	started time.Time
}

// RegisterRoutes registers all routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health probes
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/live", h.HealthLive)
	mux.HandleFunc("GET /health/ready", h.HealthReady)

	// Observability
	mux.Handle("GET /stats", metrics.StatsHandler(h.Cache))
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics.Handler())
	}

	// Admin
	mux.HandleFunc("GET /keys", h.ListKeys)
	mux.HandleFunc("DELETE /namespaces/{namespace}", h.ClearNamespace)
	mux.HandleFunc("POST /cleanup", h.Cleanup)
	mux.HandleFunc("DELETE /cache", h.Clear)
}

// Health handles GET /health. The cache always serves from memory, so a
// missing backend only degrades the status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sel := h.Cache.Selector()
	state := sel.State()

	status := "ok"
	if sel.Configured() && state != backend.StateConnected {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"components": map[string]interface{}{
			"backend": map[string]interface{}{
				"name":       sel.Name(),
				"configured": sel.Configured(),
				"state":      state.String(),
				"pending":    sel.Pending(),
			},
			"store": map[string]interface{}{
				"entries": h.Cache.Stats().Size,
			},
		},
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// HealthLive handles GET /health/live - Kubernetes liveness probe
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthReady handles GET /health/ready - Kubernetes readiness probe
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ready",
		"backend": h.Cache.Stats().Backend,
	})
}

// ListKeys handles GET /keys?pattern=team-stats:*
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys := h.Cache.Keys(r.URL.Query().Get("pattern"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys":  keys,
		"count": len(keys),
	})
}

// ClearNamespace handles DELETE /namespaces/{namespace}
func (h *Handler) ClearNamespace(w http.ResponseWriter, r *http.Request) {
	ns := r.PathValue("namespace")
	removed := h.Cache.ClearNamespace(ns)
	logging.Op().Info("cache namespace cleared", "namespace", ns, "removed", removed)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"namespace": ns,
		"removed":   removed,
	})
}

// Cleanup handles POST /cleanup
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"removed": h.Cache.Cleanup()})
}

// Clear handles DELETE /cache
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Cache.Clear()
	logging.Op().Info("cache cleared")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
