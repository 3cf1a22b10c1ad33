package metrics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

// StatsResponse is the JSON body served by StatsHandler.
type StatsResponse struct {
	cache.Stats
	CacheID       string  `json:"cacheId"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
	MirrorPending int     `json:"mirrorPending"`
}

// StatsHandler serves the cache snapshot as JSON.
func StatsHandler(c *cache.Cache) http.Handler {
	startTime := time.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := StatsResponse{
			Stats:         c.Stats(),
			CacheID:       c.ID(),
			UptimeSeconds: time.Since(startTime).Seconds(),
			MirrorPending: c.Selector().Pending(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}
