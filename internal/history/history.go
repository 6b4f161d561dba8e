package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inful/mdfp"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docpress/internal/frontmatter"
)

// Run summarizes one pipeline run.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Source      string
	Destination string
	Outcome     string
	Converted   int
	Copied      int
	Skipped     int
	Warnings    int
}

// FileRecord is the outcome of one source file within a run.
type FileRecord struct {
	Path        string // relative to the source root
	Fingerprint string // empty for copied assets
	Result      string
}

// SQLiteStore is the run ledger. Use ":memory:" for an in-memory database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and migrates) the ledger at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		outcome TEXT NOT NULL,
		converted INTEGER NOT NULL,
		copied INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		warnings INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		result TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores the run summary together with its file records.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run, files []FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, source, destination, outcome, converted, copied, skipped, warnings)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Source, run.Destination,
		run.Outcome, run.Converted, run.Copied, run.Skipped, run.Warnings,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, f := range files {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO files (run_id, path, fingerprint, result) VALUES (?, ?, ?, ?)",
			run.ID, f.Path, f.Fingerprint, f.Result,
		); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
	}
	return tx.Commit()
}

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, started_at, finished_at, source, destination, outcome, converted, copied, skipped, warnings
		FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r               Run
			started, finish int64
		)
		if err := rows.Scan(&r.ID, &started, &finish, &r.Source, &r.Destination, &r.Outcome,
			&r.Converted, &r.Copied, &r.Skipped, &r.Warnings); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finish)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Files returns the file records of a run in insertion order.
func (s *SQLiteStore) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, fingerprint, result FROM files WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []FileRecord
	for rows.Next() {
		var f FileRecord
		if err := rows.Scan(&f.Path, &f.Fingerprint, &f.Result); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return files, nil
}

// LastFingerprints returns, per path, the fingerprint recorded by the most
// recent run that converted it.
func (s *SQLiteStore) LastFingerprints(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, fingerprint FROM files WHERE fingerprint != '' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var path, fp string
		if err := rows.Scan(&path, &fp); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		out[path] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Fingerprint computes the mdfp content fingerprint of a markdown source from
// its front matter and body.
func Fingerprint(content []byte) string {
	fm, body, had, err := frontmatter.Split(content)
	if err != nil || !had {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimRight(string(fm), "\r\n"), string(body))
}
