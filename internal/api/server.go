package api

import (
	"net/http"
	"time"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/metrics"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/observability"
)

// ServerConfig contains dependencies for the HTTP server.
type ServerConfig struct {
	Cache   *cache.Cache
	Metrics *metrics.Prometheus // Optional: enables GET /metrics
}

// NewHandler builds the routed, traced handler without starting a listener.
func NewHandler(cfg ServerConfig) http.Handler {
	mux := http.NewServeMux()
	h := &Handler{Cache: cfg.Cache, Metrics: cfg.Metrics, started: time.Now()}
	h.RegisterRoutes(mux)
	return observability.HTTPMiddleware(mux)
}

// StartHTTPServer creates and starts the HTTP server.
func StartHTTPServer(addr string, cfg ServerConfig) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Op().Error("HTTP server error", "error", err)
		}
	}()

	return server
}
