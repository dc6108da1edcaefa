// Package runlog persists scenario outcomes between harness runs.
//
// The log is the only state the harness keeps across invocations; it
// never feeds back into scenario execution, it only serves the
// `poscheck history` command.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one recorded scenario execution.
type Entry struct {
	RunID        string
	Scenario     string
	Outcome      string // "pass", "fail", or "skip"
	Class        string // fault class when failed
	FirstFailure string
	Duration     time.Duration
	StartedAt    time.Time
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the run log at path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// Idempotent - safe to call against an existing log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to run log: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply run log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one entry to the log.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, scenario, outcome, class, first_failure, duration_ms, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Scenario, e.Outcome, e.Class, e.FirstFailure,
		e.Duration.Milliseconds(), e.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, scenario, outcome, class, first_failure, duration_ms, started_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
			startedAt  string
		)
		if err := rows.Scan(&e.RunID, &e.Scenario, &e.Outcome, &e.Class,
			&e.FirstFailure, &durationMS, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
