package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bookforge/bookforge/internal/site"
)

// ErrNoBuilds indicates the history store contains no recorded builds.
var ErrNoBuilds = errors.New("no builds recorded")

// Record is one persisted build outcome.
type Record struct {
	ID            int64
	BuildID       string
	StartedAt     time.Time
	Duration      time.Duration
	Outcome       site.Outcome
	PagesRendered int
	AssetsCopied  int
	Warnings      int
	Errors        int
}

// Store persists build history in SQLite.
//
// Use ":memory:" for an in-memory database, or a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates (or opens) the history database, creating parent directories
// for file-backed paths.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		pages INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		errors INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record persists the outcome of one build.
func (s *Store) Record(ctx context.Context, report *site.BuildReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, started_at, duration_ms, outcome, pages, assets, warnings, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.BuildID,
		report.StartedAt.UnixMilli(),
		report.Duration.Milliseconds(),
		string(report.Outcome),
		report.PagesRendered,
		report.AssetsCopied,
		len(report.Warnings),
		len(report.Errors),
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Last returns the most recent build record.
func (s *Store) Last(ctx context.Context) (*Record, error) {
	records, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoBuilds
	}
	return &records[0], nil
}

// List returns up to limit build records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, outcome, pages, assets, warnings, errors
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query build history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var startedMs, durationMs int64
		var outcome string
		if err := rows.Scan(&r.ID, &r.BuildID, &startedMs, &durationMs, &outcome, &r.PagesRendered, &r.AssetsCopied, &r.Warnings, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMs)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Outcome = site.Outcome(outcome)
		records = append(records, r)
	}
	return records, rows.Err()
}
