// Package sqlite provides SQLite-backed repository implementations.
// A single Store implements every key/value style repository the core needs;
// the play history lives in its own append-only file (see adapter/history).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tejashwikalptaru/tunecore/internal/ports"
)

const (
	appName    = "tunecore"
	dbFileName = "tunecore.db"

	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
)

// Store wraps the SQLite database.
//
// Thread-safety: database/sql serializes access; the pool is limited to one
// connection so in-memory databases are shared and writers never contend.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Open opens (creating if needed) the database at path and applies the schema.
// An empty path selects DefaultPath.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		path = p
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify interface implementations
var (
	_ ports.QueueStateRepository  = (*Store)(nil)
	_ ports.PlayCountRepository   = (*Store)(nil)
	_ ports.PlaylistRepository    = (*Store)(nil)
	_ ports.PreferencesRepository = (*Store)(nil)
)
