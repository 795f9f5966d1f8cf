// Package store is an audit log of extraction runs, backed by an embedded
// SQLite database. Uploaded documents and screenshots stay on disk; only run
// metadata and the sanitized record go in here.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/medintake/form-extractor/constants"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS extractions (
	id              TEXT PRIMARY KEY,
	filename        TEXT NOT NULL,
	media_type      TEXT NOT NULL,
	status          TEXT NOT NULL,
	stage           TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	record_json     TEXT NOT NULL DEFAULT '',
	screenshot_path TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_extractions_created_at ON extractions(created_at);
`

// Extraction is one recorded run.
type Extraction struct {
	ID             string
	Filename       string
	Media          constants.MediaType
	Status         constants.RunStatus
	Stage          constants.Stage
	Reason         string
	RecordJSON     string
	ScreenshotPath string
	CreatedAt      time.Time
}

type Store struct {
	db   *sql.DB
	path string
}

// Open creates the database file (and its directory) if needed and applies
// the schema. WAL mode keeps concurrent request handlers from blocking on
// writes.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Record inserts one extraction row.
func (s *Store) Record(ctx context.Context, e Extraction) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extractions
			(id, filename, media_type, status, stage, reason, record_json, screenshot_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Filename, string(e.Media), string(e.Status), string(e.Stage),
		e.Reason, e.RecordJSON, e.ScreenshotPath, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

// List returns the most recent extractions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Extraction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, media_type, status, stage, reason, record_json, screenshot_path, created_at
		FROM extractions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		var media, status, stage string
		if err := rows.Scan(&e.ID, &e.Filename, &media, &status, &stage,
			&e.Reason, &e.RecordJSON, &e.ScreenshotPath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		e.Media = constants.MediaType(media)
		e.Status = constants.RunStatus(status)
		e.Stage = constants.Stage(stage)
		out = append(out, e)
	}
	return out, rows.Err()
}
