// Package backend defines the durable key-value backend that mirrors cache
// writes, its Redis, Postgres and SQLite implementations, and the Selector that
// tracks connectivity and replays writes behind the in-process store.
//
// The in-process store stays authoritative for reads. A backend only ever
// receives writes: it is a write-behind replica, never consulted on Get.
package backend

import (
	"context"
	"time"
)

// Backend is a durable key-value store used as a write-behind mirror.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Name is the backend tag reported in cache stats ("redis", "postgres",
	// "sqlite").
	Name() string

	// Ping verifies connectivity. The selector uses it as the connection
	// handshake and as the periodic health check.
	Ping(ctx context.Context) error

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix and returns the
	// number removed. An empty prefix removes everything the backend owns.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)

	// Close releases the connection.
	Close() error
}
