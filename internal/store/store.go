// Package store provides SQLite persistence for the depth portrait
// settings and the snapshots taken from the rendered stream.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite database. Its schema is the settings key/value
// table, the snapshots table and the snapshot_people rows recorded with
// each snapshot. Repositories for each are returned by Settings and
// Snapshots.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the database at dbPath and brings the schema up to date.
// Foreign keys are enabled so deleting a snapshot removes its people.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	// PRAGMAs are per connection; a single connection keeps them in force
	// and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys on %s: %w", dbPath, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database for repositories in this package.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path, as logged at startup.
func (s *Store) Path() string {
	return s.path
}
