package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/cache"
)

// CacheCollector turns cache.Stats into metrics at scrape time, so the hot
// path never touches Prometheus.
type CacheCollector struct {
	cache *cache.Cache

	hits             *prometheus.Desc
	misses           *prometheus.Desc
	sets             *prometheus.Desc
	deletes          *prometheus.Desc
	errors           *prometheus.Desc
	hitRate          *prometheus.Desc
	entries          *prometheus.Desc
	memoryBytes      *prometheus.Desc
	backendConnected *prometheus.Desc
	mirrorQueue      *prometheus.Desc
}

// NewCacheCollector describes c under namespace.
func NewCacheCollector(namespace string, c *cache.Cache) *CacheCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", name), help, labels, nil)
	}
	return &CacheCollector{
		cache:            c,
		hits:             desc("hits_total", "Lookups served from the store"),
		misses:           desc("misses_total", "Lookups that found nothing live"),
		sets:             desc("sets_total", "Entries written"),
		deletes:          desc("deletes_total", "Entries removed by Delete"),
		errors:           desc("errors_total", "Contained failures and skipped mirror writes"),
		hitRate:          desc("hit_rate_percent", "Rounded hit rate since the last clear"),
		entries:          desc("entries", "Entries currently held, including not yet swept ones"),
		memoryBytes:      desc("memory_bytes", "Estimated encoded size of held entries"),
		backendConnected: desc("backend_connected", "1 while the durable backend is connected", "backend"),
		mirrorQueue:      desc("mirror_queue_depth", "Mirror writes waiting for the backend"),
	}
}

// Describe implements prometheus.Collector.
func (cc *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cc.hits
	ch <- cc.misses
	ch <- cc.sets
	ch <- cc.deletes
	ch <- cc.errors
	ch <- cc.hitRate
	ch <- cc.entries
	ch <- cc.memoryBytes
	ch <- cc.backendConnected
	ch <- cc.mirrorQueue
}

// Collect implements prometheus.Collector.
func (cc *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := cc.cache.Stats()
	sel := cc.cache.Selector()

	ch <- prometheus.MustNewConstMetric(cc.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(cc.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(cc.sets, prometheus.CounterValue, float64(s.Sets))
	ch <- prometheus.MustNewConstMetric(cc.deletes, prometheus.CounterValue, float64(s.Deletes))
	ch <- prometheus.MustNewConstMetric(cc.errors, prometheus.CounterValue, float64(s.Errors))
	ch <- prometheus.MustNewConstMetric(cc.hitRate, prometheus.GaugeValue, s.HitRate)
	ch <- prometheus.MustNewConstMetric(cc.entries, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(cc.memoryBytes, prometheus.GaugeValue, float64(s.MemoryBytes))

	connected := 0.0
	if s.BackendConnected {
		connected = 1
	}
	ch <- prometheus.MustNewConstMetric(cc.backendConnected, prometheus.GaugeValue, connected, sel.Name())
	ch <- prometheus.MustNewConstMetric(cc.mirrorQueue, prometheus.GaugeValue, float64(sel.Pending()))
}
