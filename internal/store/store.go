// Package store persists one row per task invocation so past runs stay
// inspectable after the process exits. Backed by SQLite; append-only.
package store

// DefaultDBName is the SQLite file name, resolved against the data
// directory. Open() creates the parent dir (e.g. .saskit).
const DefaultDBName = ".saskit/history.db"

// Record is one task invocation as persisted. Timestamps are ISO 8601
// UTC strings; Argv is the canonical argument vector.
type Record struct {
	ID         string   `json:"uuid"` // invocation UUID
	Task       string   `json:"task"`
	Argv       []string `json:"argv"`
	Status     string   `json:"status"` // SUCCESS | FAILURE | EARLY_EXIT
	ExitCode   int      `json:"exit_code"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
	DurationMS int64    `json:"duration_ms"`
	LogPath    string   `json:"log_path,omitempty"`
}
