// Package store implements the SQLite-backed cache for resolved
// roadmaps, curated career templates and extracted college details.
// All tables are insert-only; rows are never updated or deleted by the
// pipeline.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"careerpilot/internal/logging"
)

// Store wraps the SQLite cache database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path, creating the
// schema if needed.
func Open(path string) (*Store, error) {
	logging.Store("Opening cache store at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Cache store ready (roadmaps, templates, college details)")
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	// Roadmaps deliberately carry no unique constraint: concurrent
	// resolutions may insert duplicate rows for the same career, and
	// reads take the most recent one.
	roadmapsTable := `
	CREATE TABLE IF NOT EXISTS roadmaps (
		id TEXT PRIMARY KEY,
		goal_input TEXT NOT NULL,
		career TEXT NOT NULL,
		category TEXT,
		payload TEXT NOT NULL,
		source TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_roadmaps_career ON roadmaps(career);
	`

	templatesTable := `
	CREATE TABLE IF NOT EXISTS career_templates (
		id TEXT PRIMARY KEY,
		career TEXT NOT NULL UNIQUE,
		category TEXT,
		payload TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		active INTEGER DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	collegeDetailsTable := `
	CREATE TABLE IF NOT EXISTS college_details (
		id TEXT PRIMARY KEY,
		college TEXT NOT NULL,
		degree TEXT NOT NULL,
		branch TEXT NOT NULL,
		payload TEXT NOT NULL,
		source TEXT NOT NULL,
		confidence REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(college, degree, branch)
	);
	CREATE INDEX IF NOT EXISTS idx_college_details_college ON college_details(college);
	`

	for _, schema := range []string{roadmapsTable, templatesTable, collegeDetailsTable} {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the underlying database.
func (s *Store) Close() error {
	logging.StoreDebug("Closing cache store at %s", s.dbPath)
	return s.db.Close()
}
