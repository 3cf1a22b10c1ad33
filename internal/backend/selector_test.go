package backend

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeBackend struct {
	mu      sync.Mutex
	pingErr error
	setErr  error
	sets    map[string][]byte
	deletes []string
	pings   int
	closed  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sets: make(map[string][]byte)}
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets[key] = value
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sets, key)
	f.deletes = append(f.deletes, key)
	return nil
}

func (f *fakeBackend) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	return 0, nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeBackend) setPingErr(err error) {
	f.mu.Lock()
	f.pingErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) setSetErr(err error) {
	f.mu.Lock()
	f.setErr = err
	f.mu.Unlock()
}

func (f *fakeBackend) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sets[key]
	return ok
}

func fastConfig() SelectorConfig {
	return SelectorConfig{
		QueueSize:      16,
		OpTimeout:      500 * time.Millisecond,
		HealthInterval: 20 * time.Millisecond,
		InitialBackoff: 2 * time.Millisecond,
		MaxBackoff:     10 * time.Millisecond,
		MaxRetries:     2,
	}
}

type recorder struct {
	mu     sync.Mutex
	errs   []error
	states []State
}

func (r *recorder) attach(s *Selector) {
	s.SetErrorHook(func(err error) {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	})
	s.SetStateHook(func(from, to State) {
		r.mu.Lock()
		r.states = append(r.states, to)
		r.mu.Unlock()
	})
}

func (r *recorder) errCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *recorder) sawState(st State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.states {
		if s == st {
			return true
		}
	}
	return false
}

func (r *recorder) firstErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[0]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSelector_NoBackend(t *testing.T) {
	s := NewSelector(nil, fastConfig())
	var rec recorder
	rec.attach(s)
	s.Start()
	defer s.Close()

	if s.State() != StateDisconnected {
		t.Fatalf("expected disconnected, got %v", s.State())
	}
	if s.Name() != NameMemory {
		t.Fatalf("expected memory, got %q", s.Name())
	}
	if s.Configured() {
		t.Fatal("selector without backend should not be configured")
	}

	s.MirrorSet("ns:k", []byte("v"), time.Minute)
	s.MirrorDelete("ns:k")
	if rec.errCount() != 0 {
		t.Fatalf("mirror writes without backend should be silent, got %d errors", rec.errCount())
	}
}

func TestSelector_InitialStateConnecting(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	defer s.Close()

	if s.State() != StateConnecting {
		t.Fatalf("expected connecting before Start, got %v", s.State())
	}
}

func TestSelector_SkipsWritesUntilConnected(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	var rec recorder
	rec.attach(s)
	defer s.Close()

	s.MirrorSet("ns:k", []byte("v"), time.Minute)

	if rec.errCount() != 1 {
		t.Fatalf("expected 1 skipped write reported, got %d", rec.errCount())
	}
	var be *Error
	if !errors.As(rec.firstErr(), &be) || !errors.Is(be, ErrNotConnected) || be.Op != "set" {
		t.Fatalf("unexpected error: %v", rec.firstErr())
	}
	if fb.has("ns:k") {
		t.Fatal("write must not reach the backend while not connected")
	}
}

func TestSelector_ConnectsAndMirrors(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	s.Start()
	defer s.Close()

	waitFor(t, "connected", s.Connected)
	if s.Name() != "fake" {
		t.Fatalf("expected fake backend name, got %q", s.Name())
	}

	s.MirrorSet("ns:k", []byte("v"), time.Minute)
	waitFor(t, "mirrored set", func() bool { return fb.has("ns:k") })

	s.MirrorDelete("ns:k")
	waitFor(t, "mirrored delete", func() bool { return !fb.has("ns:k") })
}

func TestSelector_HandshakeExhaustionErrors(t *testing.T) {
	fb := newFakeBackend()
	fb.setPingErr(errors.New("connection refused"))
	s := NewSelector(fb, fastConfig())
	var rec recorder
	rec.attach(s)
	s.Start()
	defer s.Close()

	waitFor(t, "errored", func() bool { return rec.sawState(StateErrored) })

	var be *Error
	if !errors.As(rec.firstErr(), &be) || be.Op != "connect" {
		t.Fatalf("expected connect error, got %v", rec.firstErr())
	}

	fb.setPingErr(nil)
	waitFor(t, "recovered", s.Connected)
}

func TestSelector_WriteFailureTriggersReconnect(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	var rec recorder
	rec.attach(s)
	s.Start()
	defer s.Close()

	waitFor(t, "connected", s.Connected)

	fb.setSetErr(errors.New("READONLY You can't write against a read only replica"))
	s.MirrorSet("ns:k", []byte("v"), time.Minute)
	waitFor(t, "errored", func() bool { return rec.sawState(StateErrored) })

	fb.setSetErr(nil)
	waitFor(t, "reconnected", s.Connected)

	s.MirrorSet("ns:k2", []byte("v"), time.Minute)
	waitFor(t, "mirrored after reconnect", func() bool { return fb.has("ns:k2") })
}

func TestSelector_ConnectionLossDisconnects(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	var rec recorder
	rec.attach(s)
	s.Start()
	defer s.Close()

	waitFor(t, "connected", s.Connected)

	fb.setSetErr(io.EOF)
	s.MirrorSet("ns:k", []byte("v"), time.Minute)
	waitFor(t, "disconnected", func() bool { return rec.sawState(StateDisconnected) })

	fb.setSetErr(nil)
	waitFor(t, "reconnected", s.Connected)
}

func TestSelector_HealthCheckFailure(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	var rec recorder
	rec.attach(s)
	s.Start()
	defer s.Close()

	waitFor(t, "connected", s.Connected)
	fb.setPingErr(errors.New("LOADING Redis is loading the dataset in memory"))
	waitFor(t, "errored by health check", func() bool { return rec.sawState(StateErrored) })
}

func TestSelector_CloseIdempotent(t *testing.T) {
	fb := newFakeBackend()
	s := NewSelector(fb, fastConfig())
	s.Start()
	waitFor(t, "connected", s.Connected)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if s.State() != StateDisconnected {
		t.Fatalf("expected disconnected after close, got %v", s.State())
	}
	fb.mu.Lock()
	closed := fb.closed
	fb.mu.Unlock()
	if closed != 1 {
		t.Fatalf("expected backend closed once, got %d", closed)
	}

	// Start after Close stays inert.
	s.Start()
	s.MirrorSet("ns:k", []byte("v"), time.Minute)
	if fb.has("ns:k") {
		t.Fatal("no writes after close")
	}
}

func TestState_String(t *testing.T) {
	cases := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateErrored:      "errored",
		State(42):         "unknown",
	}
	for st, want := range cases {
		if st.String() != want {
			t.Fatalf("State(%d).String() = %q, want %q", st, st.String(), want)
		}
	}
}
