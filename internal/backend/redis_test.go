package backend

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	t.Cleanup(func() { r.Close() })
	return mr, r
}

func TestRedis_SetAndDelete(t *testing.T) {
	mr, r := newTestRedis(t)
	ctx := context.Background()

	if err := r.Set(ctx, "predictions:dal", []byte(`{"p":0.61}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := mr.Get("test:predictions:dal")
	if err != nil {
		t.Fatalf("key not in redis: %v", err)
	}
	if got != `{"p":0.61}` {
		t.Fatalf("unexpected value %q", got)
	}
	if ttl := mr.TTL("test:predictions:dal"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	if err := r.Delete(ctx, "predictions:dal"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mr.Exists("test:predictions:dal") {
		t.Fatal("key should be gone")
	}
	if err := r.Delete(ctx, "missing"); err != nil {
		t.Fatalf("Delete of missing key should not fail: %v", err)
	}
}

func TestRedis_DeletePrefix(t *testing.T) {
	mr, r := newTestRedis(t)
	ctx := context.Background()

	for _, k := range []string{"team-stats:dal", "team-stats:phi", "player-stats:dal"} {
		if err := r.Set(ctx, k, []byte("x"), time.Minute); err != nil {
			t.Fatalf("Set %s failed: %v", k, err)
		}
	}
	mr.Set("other:team-stats:dal", "foreign")

	n, err := r.DeletePrefix(ctx, "team-stats:")
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if !mr.Exists("test:player-stats:dal") {
		t.Fatal("other namespace must survive")
	}
	if !mr.Exists("other:team-stats:dal") {
		t.Fatal("keys outside the prefix must survive")
	}

	n, err = r.DeletePrefix(ctx, "")
	if err != nil {
		t.Fatalf("DeletePrefix all failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}
	if !mr.Exists("other:team-stats:dal") {
		t.Fatal("empty prefix must stay inside the key prefix")
	}
}

func TestRedis_PingAfterServerClose(t *testing.T) {
	mr, r := newTestRedis(t)
	if err := r.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Ping(ctx); err == nil {
		t.Fatal("expected ping failure after server close")
	}
}

func TestSelector_MirrorsIntoRedis(t *testing.T) {
	mr, r := newTestRedis(t)
	s := NewSelector(r, fastConfig())
	s.Start()
	defer s.Close()

	waitFor(t, "connected", s.Connected)
	if s.Name() != NameRedis {
		t.Fatalf("expected redis, got %q", s.Name())
	}

	s.MirrorSet("schedule:2025:wk1", []byte("[]"), 90*time.Second)
	waitFor(t, "key in redis", func() bool { return mr.Exists("test:schedule:2025:wk1") })

	s.MirrorDeletePrefix("schedule:")
	waitFor(t, "prefix removed", func() bool { return !mr.Exists("test:schedule:2025:wk1") })
}

func TestEscapeGlob(t *testing.T) {
	got := escapeGlob(`a*b?c[d]e\f`)
	want := `a\*b\?c\[d\]e\\f`
	if got != want {
		t.Fatalf("escapeGlob = %q, want %q", got, want)
	}
}
