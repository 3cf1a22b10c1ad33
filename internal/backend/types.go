package backend

import (
	"errors"
	"fmt"
)

// State is the connectivity state of the durable backend.
type State int32

const (
	StateDisconnected State = iota // no backend, closed, or connection lost
	StateConnecting                // handshake in progress
	StateConnected                 // writes are mirrored
	StateErrored                   // handshake or write failed, waiting to retry
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConnected is reported when a mirrored write is skipped because
	// the backend is not connected.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrQueueFull is reported when the mirror queue cannot accept a write.
	ErrQueueFull = errors.New("backend: mirror queue full")

	// ErrUnsupportedScheme is returned by Open for unknown URL schemes.
	ErrUnsupportedScheme = errors.New("backend: unsupported url scheme")
)

// Error describes a failed backend operation. It never reaches cache
// callers; the selector reports it through its error hook.
type Error struct {
	Op      string // connect, ping, set, delete, delete_prefix
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
