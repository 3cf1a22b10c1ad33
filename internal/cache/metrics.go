package cache

import (
	"math"

	"github.com/dustin/go-humanize"
)

// counters are the monotonic operation counts. They are guarded by the
// Cache mutex together with the store, and reset only by Clear.
type counters struct {
	hits    uint64
	misses  uint64
	sets    uint64
	deletes uint64
	errors  uint64
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits             uint64  `json:"hits"`
	Misses           uint64  `json:"misses"`
	Sets             uint64  `json:"sets"`
	Deletes          uint64  `json:"deletes"`
	Errors           uint64  `json:"errors"`
	HitRate          float64 `json:"hitRate"` // percent, rounded
	Size             int     `json:"size"`
	MemoryBytes      int64   `json:"memoryBytes"`
	Memory           string  `json:"memory"`
	Backend          string  `json:"backend"`
	BackendConnected bool    `json:"backendConnected"`
	BackendState     string  `json:"backendState"`
}

// hitRate returns hits/(hits+misses) as a rounded percentage, 0 when there
// have been no lookups.
func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits) / float64(total) * 100)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
