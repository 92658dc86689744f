// Package history records completed builds in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the final state of a recorded build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusWarning  Status = "warning"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Build is one row of the history table.
type Build struct {
	ID          string
	Started     time.Time
	Duration    time.Duration
	Pages       int
	Passthrough int
	BrokenLinks int
	Status      Status
	Error       string
}

// Recorder persists builds. The site builder depends on this interface.
type Recorder interface {
	Record(ctx context.Context, b Build) error
}

// SQLiteStore implements Recorder using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		passthrough INTEGER NOT NULL,
		broken_links INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record inserts a build.
func (s *SQLiteStore) Record(ctx context.Context, b Build) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, started, duration_ms, pages, passthrough, broken_links, status, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		b.ID, b.Started.UnixMilli(), b.Duration.Milliseconds(), b.Pages, b.Passthrough, b.BrokenLinks, string(b.Status), b.Error,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// Recent returns up to limit builds, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Build, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started, duration_ms, pages, passthrough, broken_links, status, error FROM builds ORDER BY started DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var (
			b                     Build
			startedMS, durationMS int64
			status                string
			errText               sql.NullString
		)
		if err := rows.Scan(&b.ID, &startedMS, &durationMS, &b.Pages, &b.Passthrough, &b.BrokenLinks, &status, &errText); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		b.Started = time.UnixMilli(startedMS)
		b.Duration = time.Duration(durationMS) * time.Millisecond
		b.Status = Status(status)
		b.Error = errText.String
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
