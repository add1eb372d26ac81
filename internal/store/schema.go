package store

// schemaVersion is the target schema version for this build.
const schemaVersion = 1

// schema is the session-store DDL. Sessions are append-only: there is no
// UPDATE path anywhere in this package.
var schema = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS sessions (
	id             TEXT PRIMARY KEY,
	gate_type      TEXT NOT NULL,
	topic          TEXT NOT NULL,
	decision       TEXT NOT NULL,
	fallback_level INTEGER NOT NULL,
	created_at     TEXT NOT NULL,
	payload        BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_gate ON sessions(gate_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC);
`
