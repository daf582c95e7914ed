// Package patternstore persists the engine's success-pattern cache in
// SQLite so patterns learned in one session bias planning in the next.
package patternstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed storage for success patterns.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// GlobalDBPath returns the path to the global taskpilot pattern
// database.
func GlobalDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskpilot", "taskpilot.db")
}

// ProjectDBPath returns the path to a project-local pattern database.
func ProjectDBPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".taskpilot", "patterns.db")
}

// New creates a Store at the given database path, creating parent
// directories as needed.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode so a concurrent reader never blocks a run saving its
	// patterns.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Store{db: conn, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.dbPath
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
