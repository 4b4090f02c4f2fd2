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
)

// NowUTC returns the current UTC time as an ISO 8601 string, the
// timestamp format used throughout the invocations table.
func NowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nilIfEmpty maps "" to NULL so optional columns stay null in the DB.
func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SqlStore is the SQLite-backed invocation history.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .saskit) if it does not exist.
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

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		// Fresh database.
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersionV1
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Append writes one invocation record. Records are never updated.
func (s *SqlStore) Append(rec Record) error {
	if rec.ID == "" {
		return errors.New("record has no UUID")
	}
	argv, err := json.Marshal(rec.Argv)
	if err != nil {
		return fmt.Errorf("marshal argv: %w", err)
	}
	if rec.StartedAt == "" {
		rec.StartedAt = NowUTC()
	}
	if rec.FinishedAt == "" {
		rec.FinishedAt = rec.StartedAt
	}
	_, err = s.db.Exec(
		`INSERT INTO invocations(uuid, task, argv, status, exit_code, started_at, finished_at, duration_ms, log_path)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Task, string(argv), rec.Status, rec.ExitCode,
		rec.StartedAt, rec.FinishedAt, rec.DurationMS, nilIfEmpty(rec.LogPath),
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// Get returns the record with the given UUID, or nil when absent.
func (s *SqlStore) Get(id string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT uuid, task, argv, status, exit_code, started_at, finished_at, duration_ms, log_path
		 FROM invocations WHERE uuid = ?`, id,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invocation: %w", err)
	}
	return rec, nil
}

// List returns the most recent records, newest first. limit <= 0 means
// no limit.
func (s *SqlStore) List(limit int) ([]*Record, error) {
	return s.list(
		`SELECT uuid, task, argv, status, exit_code, started_at, finished_at, duration_ms, log_path
		 FROM invocations ORDER BY started_at DESC, rowid DESC`, limit)
}

// ListByTask returns the most recent records for one task, newest first.
func (s *SqlStore) ListByTask(task string, limit int) ([]*Record, error) {
	return s.list(
		`SELECT uuid, task, argv, status, exit_code, started_at, finished_at, duration_ms, log_path
		 FROM invocations WHERE task = ? ORDER BY started_at DESC, rowid DESC`, limit, task)
}

func (s *SqlStore) list(query string, limit int, params ...any) ([]*Record, error) {
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}
	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(r rowScanner) (*Record, error) {
	var rec Record
	var argv string
	var logPath sql.NullString
	err := r.Scan(&rec.ID, &rec.Task, &argv, &rec.Status, &rec.ExitCode,
		&rec.StartedAt, &rec.FinishedAt, &rec.DurationMS, &logPath)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(argv), &rec.Argv); err != nil {
		return nil, fmt.Errorf("unmarshal argv: %w", err)
	}
	rec.LogPath = nullStr(logPath)
	return &rec, nil
}
