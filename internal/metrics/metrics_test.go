package metrics

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(cache.Config{SweepInterval: -1})
	t.Cleanup(c.Destroy)
	return c
}

func TestCacheCollector(t *testing.T) {
	c := newTestCache(t)
	c.Set("standings", "NFC East", cache.DefaultTTL)
	c.Get("standings")
	c.Get("standings")
	c.Get("schedule")

	cc := NewCacheCollector("playoffcache", c)
	if n := testutil.CollectAndCount(cc); n != 10 {
		t.Fatalf("expected 10 series, got %d", n)
	}

	expected := `
# HELP playoffcache_cache_hits_total Lookups served from the store
# TYPE playoffcache_cache_hits_total counter
playoffcache_cache_hits_total 2
# HELP playoffcache_cache_hit_rate_percent Rounded hit rate since the last clear
# TYPE playoffcache_cache_hit_rate_percent gauge
playoffcache_cache_hit_rate_percent 67
# HELP playoffcache_cache_backend_connected 1 while the durable backend is connected
# TYPE playoffcache_cache_backend_connected gauge
playoffcache_cache_backend_connected{backend="memory"} 0
`
	err := testutil.CollectAndCompare(cc, strings.NewReader(expected),
		"playoffcache_cache_hits_total",
		"playoffcache_cache_hit_rate_percent",
		"playoffcache_cache_backend_connected")
	if err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestPrometheus_ObserveCompute(t *testing.T) {
	p := New("", nil)

	p.ObserveCompute("predictions", 12*time.Millisecond, nil)
	p.ObserveCompute("predictions", 3*time.Millisecond, errors.New("feed down"))
	p.ObserveCompute("predictions", time.Millisecond, nil)

	if got := testutil.ToFloat64(p.computeTotal.WithLabelValues("predictions", "ok")); got != 2 {
		t.Fatalf("expected 2 ok computes, got %v", got)
	}
	if got := testutil.ToFloat64(p.computeTotal.WithLabelValues("predictions", "error")); got != 1 {
		t.Fatalf("expected 1 failed compute, got %v", got)
	}
	if n := testutil.CollectAndCount(p.computeDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestPrometheus_BackendTransitions(t *testing.T) {
	p := New("", nil)
	p.ObserveBackendTransition(backend.StateConnecting, backend.StateConnected)
	p.ObserveBackendTransition(backend.StateConnected, backend.StateErrored)
	p.ObserveBackendTransition(backend.StateErrored, backend.StateConnecting)
	p.ObserveBackendTransition(backend.StateConnecting, backend.StateConnected)

	if got := testutil.ToFloat64(p.backendTransitions.WithLabelValues("connected")); got != 2 {
		t.Fatalf("expected 2 transitions to connected, got %v", got)
	}
}

func TestPrometheus_Handler(t *testing.T) {
	c := newTestCache(t)
	c.Set("team-stats", 12, cache.DefaultTTL, "DAL")

	p := New("", nil)
	if err := p.RegisterCache(c); err != nil {
		t.Fatalf("RegisterCache failed: %v", err)
	}
	if err := p.RegisterCache(c); err == nil {
		t.Fatal("registering the same cache twice should fail")
	}

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		"playoffcache_cache_sets_total 1",
		"playoffcache_cache_entries 1",
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestStatsHandler(t *testing.T) {
	c := newTestCache(t)
	c.Set("predictions", 0.61, cache.DefaultTTL, "DAL")
	c.Get("predictions", "DAL")

	rec := httptest.NewRecorder()
	StatsHandler(c).ServeHTTP(rec, httptest.NewRequest("GET", "/stats", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Hits != 1 || resp.Size != 1 || resp.Backend != "memory" {
		t.Fatalf("unexpected stats %+v", resp)
	}
	if resp.CacheID != c.ID() {
		t.Fatalf("expected cache id %q, got %q", c.ID(), resp.CacheID)
	}
}
