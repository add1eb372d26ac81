package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"conclave/internal/council"
)

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .conclave) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// Append persists one deliberation result.
func (s *SqlStore) Append(result *council.DeliberationResult) error {
	if result == nil || result.ID == "" {
		return errors.New("store: result with id required")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result %s: %w", result.ID, err)
	}

	createdAt := result.CreatedAt.UTC().Format(time.RFC3339)
	if result.CreatedAt.IsZero() {
		createdAt = nowUTC()
	}

	_, err = s.db.Exec(
		`INSERT INTO sessions(id, gate_type, topic, decision, fallback_level, created_at, payload)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		result.ID, string(result.Request.GateType), result.Request.Topic,
		string(result.Decision), int(result.Diagnostics.FallbackLevel), createdAt, payload,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", result.ID, err)
	}
	return nil
}

// Get returns the session with the given result id.
func (s *SqlStore) Get(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT id, gate_type, topic, decision, fallback_level, created_at, payload
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sess, err
}

// ListRecent returns up to limit sessions, newest first.
func (s *SqlStore) ListRecent(limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, gate_type, topic, decision, fallback_level, created_at, payload
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

// ListByGate returns up to limit sessions for one gate type, newest first.
func (s *SqlStore) ListByGate(gate council.GateType, limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, gate_type, topic, decision, fallback_level, created_at, payload
		 FROM sessions WHERE gate_type = ? ORDER BY created_at DESC LIMIT ?`,
		string(gate), normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions by gate: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var gate, decision string
	var level int
	var payload []byte
	if err := row.Scan(&sess.ID, &gate, &sess.Topic, &decision, &level, &sess.CreatedAt, &payload); err != nil {
		return nil, err
	}
	sess.GateType = council.GateType(gate)
	sess.Decision = council.Decision(decision)
	sess.FallbackLevel = council.FallbackLevel(level)

	var result council.DeliberationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode session %s payload: %w", sess.ID, err)
	}
	sess.Result = &result
	return &sess, nil
}

func collectSessions(rows *sql.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}
