// Package checkpoint implements the external store a registry reducer
// persists SaveServiceCheckpoint payloads to. The reducer keeps its own
// in-memory copy of every checkpoint it applies, which does not survive a
// process restart; this package is where those payloads are handed off for
// durable storage. It provides that boundary as a small interface, an
// in-memory default, and a Redis-backed adapter.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Record is a checkpoint payload as exchanged with the external store.
type Record struct {
	ServiceID     string
	CheckpointID  string
	Data          []byte
	SourceOffsets map[string]uint64
	SavedAt       time.Time
}

// Store persists and retrieves checkpoint records. Implementations must
// treat Save as an upsert keyed by (ServiceID, CheckpointID) and must
// track, per ServiceID, which CheckpointID was saved most recently.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Latest(ctx context.Context, serviceID string) (Record, bool, error)
	Get(ctx context.Context, serviceID, checkpointID string) (Record, bool, error)
	Close() error
}

// Error is a checkpoint store error tagged with a stable code, the same
// shape the rest of the lineage uses for boundary-adapter errors.
type Error struct {
	Message string
	Code    string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(message, code string) *Error {
	return &Error{Message: message, Code: code}
}

func (e *Error) withCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ErrNotFound is the not-found error value. The Store implementations in
// this package do not return it: Get/Latest report a missing checkpoint as
// ok=false with a nil error.
var ErrNotFound = newError("checkpoint not found", "NOT_FOUND")

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	var ckErr *Error
	return errors.As(err, &ckErr) && ckErr.Code == "NOT_FOUND"
}
