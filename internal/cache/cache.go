// Package cache memoizes expensive analytics results in a namespaced,
// in-process TTL store.
//
// The store is always authoritative: every read is served from memory.
// When a durable backend is configured, writes are additionally replayed to
// it by a backend.Selector on a background goroutine; a backend outage never
// fails or slows a cache call. Expired entries disappear lazily on access
// and actively through a periodic sweep.
//
// Construct one Cache per process and hand it to every consumer.
package cache

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/backend"
	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
)

// Config is fixed at construction.
type Config struct {
	// DefaultTTL applies to namespaces missing from NamespaceTTLs.
	// <= 0 means DefaultGlobalTTL.
	DefaultTTL time.Duration

	// NamespaceTTLs is the namespace policy table.
	NamespaceTTLs map[string]time.Duration

	// SweepInterval is the active expiration period. 0 means
	// DefaultSweepInterval; negative disables the sweeper.
	SweepInterval time.Duration
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) { c.clock = clk }
}

// WithBackend attaches a durable mirror. The cache starts the selector and
// closes it on Destroy.
func WithBackend(sel *backend.Selector) Option {
	return func(c *Cache) { c.backend = sel }
}

// WithCodec sets the codec used for the memory estimate and mirror payloads.
func WithCodec(codec Codec) Option {
	return func(c *Cache) { c.codec = codec }
}

// ComputeObserver is told about every producer run: its namespace, how long
// it took and its error.
type ComputeObserver func(namespace string, took time.Duration, err error)

// WithComputeObserver registers fn for producer runs, typically a metrics
// recorder.
func WithComputeObserver(fn ComputeObserver) Option {
	return func(c *Cache) { c.observe = fn }
}

// WithLogger sets the logger. Defaults to logging.Op().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// Cache is a namespaced TTL cache. All methods are safe for concurrent use.
// One mutex guards the store and its counters, so Stats always observes a
// counter together with the mutation it describes.
type Cache struct {
	id      string
	policy  *Policy
	codec   Codec
	clock   clock.Clock
	logger  *slog.Logger
	observe ComputeObserver

	mu    sync.Mutex
	store *memStore
	stats counters

	backend *backend.Selector
	flights singleflight.Group
	sweeper *sweeper

	destroyOnce sync.Once
}

// New builds a cache, starts its sweeper and, if configured, its backend
// selector.
func New(cfg Config, opts ...Option) *Cache {
	c := &Cache{
		id:     uuid.NewString(),
		policy: NewPolicy(cfg.DefaultTTL, cfg.NamespaceTTLs),
		codec:  JSONCodec{},
		clock:  clock.New(),
		store:  newMemStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Op()
	}
	c.logger = c.logger.With("cache_id", c.id)
	if c.backend == nil {
		c.backend = backend.NewSelector(nil, backend.SelectorConfig{Logger: c.logger})
	}
	c.backend.SetErrorHook(func(error) { c.recordError() })
	c.backend.Start()

	interval := cfg.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if interval > 0 {
		c.sweeper = startSweeper(c.clock, interval, c.Cleanup, c.logger)
	}

	c.logger.Info("cache started",
		"backend", c.backend.Name(),
		"default_ttl", c.policy.Fallback(),
		"sweep_interval", interval,
		"codec", c.codec.Name())
	return c
}

// ID identifies this cache instance in logs.
func (c *Cache) ID() string { return c.id }

// TTLFor returns the default TTL applied to namespace.
func (c *Cache) TTLFor(namespace string) time.Duration {
	return c.policy.TTL(namespace)
}

// Selector exposes the backend selector for connectivity inspection.
func (c *Cache) Selector() *backend.Selector { return c.backend }

// Set stores value under (namespace, params) for ttl, or for the namespace
// default when ttl is DefaultTTL. An existing entry is replaced entirely.
func (c *Cache) Set(namespace string, value any, ttl time.Duration, params ...any) (ok bool) {
	defer c.recoverOp("set")
	c.set(namespace, BuildKey(namespace, params...), value, ttl)
	return true
}

func (c *Cache) set(namespace, key string, value any, ttl time.Duration) {
	ttl = c.policy.resolve(namespace, ttl)

	payload, encErr := c.codec.Marshal(value)
	if encErr != nil {
		c.logger.Debug("cache value not encodable", "key", key, "codec", c.codec.Name(), "error", encErr)
	}

	c.insert(key, value, int64(len(payload)), ttl)

	if encErr != nil {
		if c.backend.Configured() {
			c.recordError()
		}
		return
	}
	c.backend.MirrorSet(key, payload, ttl)
}

func (c *Cache) insert(key string, value any, size int64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.store.put(&entry{
		key:       key,
		value:     value,
		size:      size,
		createdAt: now,
		expiresAt: now.Add(ttl),
	})
	c.stats.sets++
}

// Get returns the live value for (namespace, params). An expired entry is
// purged and counted as a miss.
func (c *Cache) Get(namespace string, params ...any) (any, bool) {
	return c.getKey(BuildKey(namespace, params...))
}

func (c *Cache) getKey(key string) (value any, ok bool) {
	defer c.recoverOp("get")
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.store.lookup(key, c.clock.Now())
	if !ok {
		c.stats.misses++
		return nil, false
	}
	c.stats.hits++
	return e.value, true
}

// peek is getKey without counters.
func (c *Cache) peek(key string) (value any, ok bool) {
	defer c.recoverOp("get")
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.store.lookup(key, c.clock.Now())
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Has reports whether a live entry exists. It does not count as a hit or miss.
func (c *Cache) Has(namespace string, params ...any) bool {
	_, ok := c.peek(BuildKey(namespace, params...))
	return ok
}

// Delete removes (namespace, params) and reports whether it existed. Only
// an actual removal counts as a delete.
func (c *Cache) Delete(namespace string, params ...any) (existed bool) {
	defer c.recoverOp("delete")
	key := BuildKey(namespace, params...)

	existed = c.removeKey(key)
	c.backend.MirrorDelete(key)
	return existed
}

func (c *Cache) removeKey(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.store.remove(key) {
		return false
	}
	c.stats.deletes++
	return true
}

// ClearNamespace removes every entry of namespace and returns the count.
// Other namespaces are untouched.
func (c *Cache) ClearNamespace(namespace string) (removed int) {
	defer c.recoverOp("clear_namespace")

	removed = c.removeWhere(func(e *entry) bool {
		return inNamespace(e.key, namespace)
	})
	c.backend.MirrorDeletePrefix(NamespacePrefix(namespace), BuildKey(namespace))
	return removed
}

func (c *Cache) removeWhere(fn func(*entry) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.removeWhere(fn)
}

// Clear empties the store and resets every counter.
func (c *Cache) Clear() (ok bool) {
	defer c.recoverOp("clear")

	c.reset()
	c.backend.MirrorDeletePrefix("")
	return true
}

func (c *Cache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.reset()
	c.stats = counters{}
}

// Keys lists live keys matching a glob pattern (* and ?), sorted. An empty
// pattern matches everything.
func (c *Cache) Keys(pattern string) (keys []string) {
	defer c.recoverOp("keys")

	var match func(string) bool
	if pattern != "" && pattern != "*" {
		match = globRegexp(pattern).MatchString
	}

	keys = c.liveKeys(match)
	slices.Sort(keys)
	return keys
}

func (c *Cache) liveKeys(match func(string) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	keys := make([]string, 0, c.store.len())
	for k, e := range c.store.entries {
		if e.staleAt(now) {
			continue
		}
		if match == nil || match(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Cleanup purges every entry with expiresAt <= now and returns the count.
// While a durable backend is connected it does nothing and returns 0.
func (c *Cache) Cleanup() (removed int) {
	defer c.recoverOp("cleanup")
	if c.backend.Connected() {
		return 0
	}
	now := c.clock.Now()
	return c.removeWhere(func(e *entry) bool {
		return e.sweepableAt(now)
	})
}

// Stats returns a snapshot of counters, size and backend status.
func (c *Cache) Stats() (s Stats) {
	defer c.recoverOp("stats")

	state := c.backend.State()
	name := backend.NameMemory
	if state == backend.StateConnected {
		name = c.backend.Name()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:             c.stats.hits,
		Misses:           c.stats.misses,
		Sets:             c.stats.sets,
		Deletes:          c.stats.deletes,
		Errors:           c.stats.errors,
		HitRate:          hitRate(c.stats.hits, c.stats.misses),
		Size:             c.store.len(),
		MemoryBytes:      c.store.bytes,
		Memory:           formatBytes(c.store.bytes),
		Backend:          name,
		BackendConnected: state == backend.StateConnected,
		BackendState:     state.String(),
	}
}

// Metrics is an alias of Stats.
func (c *Cache) Metrics() Stats { return c.Stats() }

// Destroy stops the sweeper and closes the backend. Safe to call more than
// once; the in-process store stays readable afterwards.
func (c *Cache) Destroy() {
	c.destroyOnce.Do(func() {
		if c.sweeper != nil {
			c.sweeper.Stop()
		}
		if err := c.backend.Close(); err != nil {
			c.logger.Warn("cache backend close failed", "error", err)
		}
		c.logger.Info("cache destroyed")
	})
}

func (c *Cache) recordError() {
	c.mu.Lock()
	c.stats.errors++
	c.mu.Unlock()
}

// recoverOp turns a panic inside an operation into a counted error; the
// operation returns its zero value. Deferred before any lock is taken, and
// every locked section defers its own unlock, so the lock is released
// before it runs.
func (c *Cache) recoverOp(op string) {
	if r := recover(); r != nil {
		c.recordError()
		c.logger.Error("cache operation failed", "op", op, "panic", r)
	}
}

func globRegexp(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, ".*")
	quoted = strings.ReplaceAll(quoted, `\?`, ".")
	return regexp.MustCompile("^" + quoted + "$")
}
