package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a SQLite-backed module dataset with crawl history and an HTTP
// response cache.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the database file.
	path string

	// recovered is true when an unreadable file was replaced on open.
	recovered bool
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotExist is returned by Open when the file is missing and
// CreateIfNotExists is false.
var ErrNotExist = errors.New("database does not exist")

// Open opens the database file at path.
//
// A file that exists but is not a readable SQLite database is removed,
// together with its -wal and -shm companions, and an empty database is
// created in its place.
func Open(path string, opts Options) (*Store, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := openChecked(path, opts)
	recovered := false
	if errors.Is(err, errCorrupt) {
		if err := removeDatabaseFiles(path); err != nil {
			return nil, err
		}
		recovered = true
		db, err = openChecked(path, Options{CreateIfNotExists: true, EnableWAL: opts.EnableWAL})
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, path: path, recovered: recovered}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

var errCorrupt = errors.New("database file is corrupt")

// openChecked opens path and verifies SQLite can read it.
func openChecked(path string, opts Options) (*sql.DB, error) {
	// mode=rw refuses to create a missing file.
	dsn := path + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	var result string
	if err := db.QueryRowContext(context.Background(), "PRAGMA quick_check").Scan(&result); err != nil || result != "ok" {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s", errCorrupt, path)
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return db, nil
}

func removeDatabaseFiles(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove corrupt database: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Recovered reports whether Open replaced an unreadable file with an empty database.
func (s *Store) Recovered() bool {
	return s.recovered
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One row per module identity
	CREATE TABLE IF NOT EXISTS records (
		organization TEXT NOT NULL,
		repository TEXT NOT NULL,
		version TEXT NOT NULL,
		module TEXT NOT NULL,
		name TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		stars INTEGER NOT NULL DEFAULT 0,
		url TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		scanned_at TEXT NOT NULL,
		PRIMARY KEY (organization, repository, version, module)
	);

	CREATE INDEX IF NOT EXISTS idx_records_scanned_at ON records(scanned_at);

	-- One row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL DEFAULT '',
		organizations TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		cause TEXT NOT NULL DEFAULT '',
		updated INTEGER NOT NULL DEFAULT 0,
		checkpoint TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	-- Validated API responses
	CREATE TABLE IF NOT EXISTS http_cache (
		key TEXT PRIMARY KEY,
		etag TEXT NOT NULL,
		last_modified TEXT NOT NULL DEFAULT '',
		body BLOB NOT NULL,
		stored_at TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// timeLayout is fixed width so that text comparison in SQL is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp formats t for storage. The zero time is stored as "".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning the zero time for ""
// or anything unparseable.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
