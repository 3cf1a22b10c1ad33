package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Dsm3674/Cowboys-playoff-prediction-app-sub000/internal/logging"
)

// NameMemory is reported when no durable backend is connected.
const NameMemory = "memory"

// SelectorConfig tunes the failover controller.
type SelectorConfig struct {
	QueueSize      int           // buffered mirror writes
	OpTimeout      time.Duration // per backend call
	HealthInterval time.Duration // ping period while connected
	InitialBackoff time.Duration // first handshake retry delay
	MaxBackoff     time.Duration // cap on retry delay, also the errored cooldown
	MaxRetries     uint          // handshake attempts per connect cycle
	Logger         *slog.Logger
}

// DefaultSelectorConfig returns production defaults.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		QueueSize:      1024,
		OpTimeout:      2 * time.Second,
		HealthInterval: 30 * time.Second,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		MaxRetries:     5,
	}
}

func (c *SelectorConfig) applyDefaults() {
	def := DefaultSelectorConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = def.QueueSize
	}
	if c.OpTimeout <= 0 {
		c.OpTimeout = def.OpTimeout
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = def.HealthInterval
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = def.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
}

type mirrorOp struct {
	name  string
	apply func(ctx context.Context, b Backend) error
}

// Selector tracks connectivity to an optional durable backend and replays
// cache writes to it on a background goroutine.
//
// State machine:
//
//	Disconnected ──Start──► Connecting ──handshake ok──► Connected
//	                           ▲   │                        │
//	                           │   └─retries exhausted─► Errored
//	                           │                            │
//	                           └──cooldown / conn lost──────┘
//
// Writes are accepted only while Connected. Anything else is skipped and
// reported through the error hook; the caller never blocks or fails.
type Selector struct {
	backend Backend
	cfg     SelectorConfig
	logger  *slog.Logger

	state atomic.Int32
	queue chan mirrorOp
	wake  chan struct{}

	hookMu        sync.RWMutex
	onError       func(error)
	onStateChange func(from, to State)

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lifecycle sync.Mutex
	started   bool
	closed    bool
	closeOnce sync.Once
}

// NewSelector creates a selector for b. A nil backend yields a selector that
// stays Disconnected and drops every mirror write silently.
func NewSelector(b Backend, cfg SelectorConfig) *Selector {
	cfg.applyDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Op()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Selector{
		backend: b,
		cfg:     cfg,
		logger:  logger,
		queue:   make(chan mirrorOp, cfg.QueueSize),
		wake:    make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	if b != nil {
		s.state.Store(int32(StateConnecting))
	}
	return s
}

// Start launches the connection loop and the mirror worker. It is a no-op
// without a backend, after Close, or when already started.
func (s *Selector) Start() {
	if s == nil || s.backend == nil {
		return
	}
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	s.wg.Add(2)
	go s.run()
	go s.drain()
}

// SetErrorHook registers fn to receive every backend failure, including
// skipped writes.
func (s *Selector) SetErrorHook(fn func(error)) {
	s.hookMu.Lock()
	s.onError = fn
	s.hookMu.Unlock()
}

// SetStateHook registers fn to observe state transitions.
func (s *Selector) SetStateHook(fn func(from, to State)) {
	s.hookMu.Lock()
	s.onStateChange = fn
	s.hookMu.Unlock()
}

// State returns the current connectivity state.
func (s *Selector) State() State {
	if s == nil {
		return StateDisconnected
	}
	return State(s.state.Load())
}

// Connected reports whether writes are currently mirrored.
func (s *Selector) Connected() bool {
	return s.State() == StateConnected
}

// Configured reports whether a durable backend exists at all.
func (s *Selector) Configured() bool {
	return s != nil && s.backend != nil
}

// Name returns the backend tag, or "memory" when none is configured.
func (s *Selector) Name() string {
	if !s.Configured() {
		return NameMemory
	}
	return s.backend.Name()
}

// Pending returns the number of queued mirror writes.
func (s *Selector) Pending() int {
	if s == nil {
		return 0
	}
	return len(s.queue)
}

// MirrorSet queues a write of key.
func (s *Selector) MirrorSet(key string, value []byte, ttl time.Duration) {
	s.enqueue(mirrorOp{name: "set", apply: func(ctx context.Context, b Backend) error {
		return b.Set(ctx, key, value, ttl)
	}})
}

// MirrorDelete queues a delete of key.
func (s *Selector) MirrorDelete(key string) {
	s.enqueue(mirrorOp{name: "delete", apply: func(ctx context.Context, b Backend) error {
		return b.Delete(ctx, key)
	}})
}

// MirrorDeletePrefix queues a delete of every key under prefix, plus any
// exact keys that the prefix does not cover.
func (s *Selector) MirrorDeletePrefix(prefix string, exact ...string) {
	s.enqueue(mirrorOp{name: "delete_prefix", apply: func(ctx context.Context, b Backend) error {
		for _, key := range exact {
			if err := b.Delete(ctx, key); err != nil {
				return err
			}
		}
		_, err := b.DeletePrefix(ctx, prefix)
		return err
	}})
}

func (s *Selector) enqueue(op mirrorOp) {
	if !s.Configured() || s.isClosed() {
		return
	}
	if !s.Connected() {
		s.report(&Error{Op: op.name, Backend: s.Name(), Err: ErrNotConnected})
		return
	}
	select {
	case s.queue <- op:
	default:
		s.report(&Error{Op: op.name, Backend: s.Name(), Err: ErrQueueFull})
	}
}

// Close stops both goroutines, drops queued writes, closes the backend and
// leaves the selector Disconnected. Safe to call more than once.
func (s *Selector) Close() error {
	if s == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		s.lifecycle.Lock()
		s.closed = true
		s.lifecycle.Unlock()

		s.cancel()
		s.wg.Wait()
		if s.backend != nil {
			err = s.backend.Close()
		}
		s.transition(StateDisconnected)
	})
	return err
}

func (s *Selector) isClosed() bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.closed
}

func (s *Selector) run() {
	defer s.wg.Done()

	health := time.NewTicker(s.cfg.HealthInterval)
	defer health.Stop()

	for s.ctx.Err() == nil {
		switch s.State() {
		case StateConnected:
			select {
			case <-s.ctx.Done():
				return
			case <-s.wake:
			case <-health.C:
				if err := s.ping(); err != nil {
					s.fail("ping", err)
				}
			}
		case StateErrored:
			cooldown := time.NewTimer(s.cfg.MaxBackoff)
			select {
			case <-s.ctx.Done():
				cooldown.Stop()
				return
			case <-cooldown.C:
			}
			s.connect()
		default:
			s.connect()
		}
	}
}

// connect runs one handshake cycle with bounded exponential backoff.
func (s *Selector) connect() {
	s.transition(StateConnecting)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.cfg.InitialBackoff
	policy.MaxInterval = s.cfg.MaxBackoff

	_, err := backoff.Retry(s.ctx,
		func() (struct{}, error) {
			return struct{}{}, s.ping()
		},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.cfg.MaxRetries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Debug("cache backend handshake failed, retrying",
				"backend", s.Name(), "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		s.report(&Error{Op: "connect", Backend: s.Name(), Err: err})
		s.transition(StateErrored)
		return
	}
	s.transition(StateConnected)
}

func (s *Selector) ping() error {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.OpTimeout)
	defer cancel()
	return s.backend.Ping(ctx)
}

func (s *Selector) drain() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case op := <-s.queue:
			s.apply(op)
		}
	}
}

func (s *Selector) apply(op mirrorOp) {
	if !s.Connected() {
		s.report(&Error{Op: op.name, Backend: s.Name(), Err: ErrNotConnected})
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.OpTimeout)
	defer cancel()
	if err := op.apply(ctx, s.backend); err != nil {
		s.fail(op.name, err)
	}
}

// fail reports err and, if the selector was Connected, moves it to Errored
// (or Disconnected for a lost connection) and wakes the connection loop.
func (s *Selector) fail(op string, err error) {
	if s.ctx.Err() != nil {
		return
	}
	s.report(&Error{Op: op, Backend: s.Name(), Err: err})

	to := StateErrored
	if isConnectionLoss(err) {
		to = StateDisconnected
	}
	if !s.state.CompareAndSwap(int32(StateConnected), int32(to)) {
		return
	}
	s.changed(StateConnected, to)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Selector) transition(to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		s.changed(from, to)
	}
}

func (s *Selector) changed(from, to State) {
	level := slog.LevelInfo
	if to == StateErrored {
		level = slog.LevelWarn
	}
	s.logger.Log(context.Background(), level, "cache backend state changed",
		"backend", s.Name(), "from", from.String(), "to", to.String())

	s.hookMu.RLock()
	fn := s.onStateChange
	s.hookMu.RUnlock()
	if fn != nil {
		fn(from, to)
	}
}

func (s *Selector) report(err error) {
	if errors.Is(err, ErrNotConnected) {
		s.logger.Debug("cache mirror write skipped", "error", err)
	} else {
		s.logger.Warn("cache backend error", "error", err)
	}

	s.hookMu.RLock()
	fn := s.onError
	s.hookMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

func isConnectionLoss(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, redis.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
