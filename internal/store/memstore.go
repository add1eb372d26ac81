package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"conclave/internal/council"
)

// MemStore is the in-memory Store used by tests and the CLI when no DB path
// is configured.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string // append order, oldest first
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{sessions: make(map[string]*Session)}
}

func (s *MemStore) Close() error { return nil }

// Append persists one deliberation result.
func (s *MemStore) Append(result *council.DeliberationResult) error {
	if result == nil || result.ID == "" {
		return errors.New("store: result with id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[result.ID]; exists {
		return fmt.Errorf("store: duplicate session id %s", result.ID)
	}

	createdAt := result.CreatedAt.UTC().Format(time.RFC3339)
	if result.CreatedAt.IsZero() {
		createdAt = nowUTC()
	}
	s.sessions[result.ID] = &Session{
		ID:            result.ID,
		GateType:      result.Request.GateType,
		Topic:         result.Request.Topic,
		Decision:      result.Decision,
		FallbackLevel: result.Diagnostics.FallbackLevel,
		CreatedAt:     createdAt,
		Result:        result,
	}
	s.order = append(s.order, result.ID)
	return nil
}

// Get returns the session with the given result id.
func (s *MemStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, nil
}

// ListRecent returns up to limit sessions, newest first.
func (s *MemStore) ListRecent(limit int) ([]*Session, error) {
	return s.list(limit, func(*Session) bool { return true })
}

// ListByGate returns up to limit sessions for one gate type, newest first.
func (s *MemStore) ListByGate(gate council.GateType, limit int) ([]*Session, error) {
	return s.list(limit, func(sess *Session) bool { return sess.GateType == gate })
}

func (s *MemStore) list(limit int, keep func(*Session) bool) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, id := range s.order {
		if sess := s.sessions[id]; keep(sess) {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if max := normalizeLimit(limit); len(out) > max {
		out = out[:max]
	}
	return out, nil
}
