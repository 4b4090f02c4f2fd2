package store

// schemaVersionV1 is the invocation-history schema this build targets.
const schemaVersionV1 = 1

// schemaV1 holds one row per task invocation, append-only. argv is the
// canonical argument vector serialized as a JSON array.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

CREATE TABLE IF NOT EXISTS invocations (
	uuid        TEXT PRIMARY KEY,
	task        TEXT NOT NULL,
	argv        TEXT NOT NULL,
	status      TEXT NOT NULL,
	exit_code   INTEGER NOT NULL DEFAULT 0,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	log_path    TEXT
);

CREATE INDEX IF NOT EXISTS idx_invocations_task ON invocations(task, started_at);
`
