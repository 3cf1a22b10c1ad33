package cache

import "time"

// entry is one cached value. expiresAt is always after createdAt.
type entry struct {
	key       string
	value     any
	size      int64 // encoded length, 0 when the value could not be encoded
	createdAt time.Time
	expiresAt time.Time
}

// staleAt reports lazy-expiration staleness: strictly past expiresAt.
func (e *entry) staleAt(now time.Time) bool {
	return now.After(e.expiresAt)
}

// sweepableAt reports active-expiration eligibility: expiresAt <= now.
func (e *entry) sweepableAt(now time.Time) bool {
	return !e.expiresAt.After(now)
}

// memStore is the in-process TTL map. It is not safe for concurrent use;
// Cache serializes access under its mutex.
type memStore struct {
	entries map[string]*entry
	bytes   int64
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*entry)}
}

// put inserts or fully replaces the entry for e.key.
func (s *memStore) put(e *entry) {
	if old, ok := s.entries[e.key]; ok {
		s.bytes -= old.size
	}
	s.entries[e.key] = e
	s.bytes += e.size
}

// lookup returns the live entry for key. A stale entry is purged and
// reported as absent.
func (s *memStore) lookup(key string, now time.Time) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.staleAt(now) {
		s.remove(key)
		return nil, false
	}
	return e, true
}

// remove deletes key and reports whether it existed.
func (s *memStore) remove(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	s.bytes -= e.size
	return true
}

// removeWhere deletes every entry matching fn and returns the count.
func (s *memStore) removeWhere(fn func(*entry) bool) int {
	removed := 0
	for key, e := range s.entries {
		if fn(e) {
			delete(s.entries, key)
			s.bytes -= e.size
			removed++
		}
	}
	return removed
}

func (s *memStore) reset() {
	s.entries = make(map[string]*entry)
	s.bytes = 0
}

func (s *memStore) len() int {
	return len(s.entries)
}
