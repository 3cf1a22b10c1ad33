package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultSweepInterval is how often expired entries are actively purged.
const DefaultSweepInterval = 10 * time.Minute

// sweeper runs active expiration on a fixed interval, independent of reads.
// It owns one goroutine and one ticker; Stop releases both.
type sweeper struct {
	sweep  func() int
	logger *slog.Logger
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// startSweeper creates the ticker before returning, so a mock clock
// advanced right after construction always reaches it.
func startSweeper(clk clock.Clock, interval time.Duration, sweep func() int, logger *slog.Logger) *sweeper {
	s := &sweeper{
		sweep:  sweep,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	ticker := clk.Ticker(interval)
	go s.loop(ticker)
	return s
}

func (s *sweeper) loop(ticker *clock.Ticker) {
	defer close(s.done)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("cache sweep removed expired entries", "removed", n)
			}
		}
	}
}

// Stop terminates the loop and waits for it. Safe to call more than once.
func (s *sweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}
