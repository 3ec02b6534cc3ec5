// Package state persists the optional run cache in SQLite. It keeps a
// history of conformance runs and memoizes per-file extraction results
// keyed by content hash, so unchanged files skip the parser on warm runs.
package state

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/layerlint/layerlint/pkg/core"
)

// Store implements core.Store backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ core.Store = (*Store)(nil)

// NewStore creates a new store instance. Call Open before use.
func NewStore() *Store {
	return &Store{}
}

// Open opens the SQLite database at path, creating it when absent.
// Use ":memory:" for an in-memory database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
	} else {
		dsn = ":memory:?_time_format=sqlite"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}
