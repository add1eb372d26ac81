package store

import (
	"errors"

	"conclave/internal/council"
)

// ErrNotFound is returned when no session matches the requested id.
var ErrNotFound = errors.New("store: session not found")

// Session is one persisted deliberation, indexed by the fields dashboards
// filter on. The full result rides along as an opaque payload.
type Session struct {
	ID            string
	GateType      council.GateType
	Topic         string
	Decision      council.Decision
	FallbackLevel council.FallbackLevel
	CreatedAt     string // ISO 8601
	Result        *council.DeliberationResult
}

// Store is the append-only session persistence facade. Results are written
// once, never mutated; the engine and servers use only this interface.
type Store interface {
	// Append persists one deliberation result. The result's id must be unique.
	Append(result *council.DeliberationResult) error
	// Get returns the session with the given result id.
	Get(id string) (*Session, error)
	// ListRecent returns up to limit sessions, newest first.
	ListRecent(limit int) ([]*Session, error)
	// ListByGate returns up to limit sessions for one gate type, newest first.
	ListByGate(gate council.GateType, limit int) ([]*Session, error)
	// Close releases underlying resources.
	Close() error
}
