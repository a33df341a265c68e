// Package state provides the SQLite-backed shared store for a team
// workspace: conversation, decision, bug, and solution ledgers, per-role
// agent state, the spawn registry, user-context buffers, and the
// append-only log.
//
// One Store exists per workspace namespace. Every mutating operation
// serializes through the store's write lock; ledger identifiers are
// assigned by SQLite inside that same boundary, so they are monotonic and
// collision-free under concurrent appends. Reads may observe state up to
// one in-flight write stale.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrBugNotFound is returned when a solution references an unknown bug id.
var ErrBugNotFound = errors.New("bug not found")

// ErrCorruptState marks a persisted workspace that could not be read.
// Open recovers from it by reinitializing an empty store; callers can
// check Recovered to learn that prior state was lost.
var ErrCorruptState = errors.New("corrupt workspace state")

// Store wraps an SQLite database holding one workspace's shared state.
type Store struct {
	conn      *sql.DB
	workspace string
	path      string
	recovered bool
	mu        sync.RWMutex
}

// DefaultBaseDir returns the base directory for workspace stores.
func DefaultBaseDir() string {
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return filepath.Join(dataDir, "triad")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "triad")
}

// WorkspacePath returns the database path for a workspace under baseDir.
func WorkspacePath(baseDir, workspace string) string {
	return filepath.Join(baseDir, workspace, "state.db")
}

// Open opens (or creates) the store for a workspace under baseDir.
// WAL mode is enabled for concurrent reads. If the persisted file is
// unreadable or fails its integrity check, it is moved aside and the
// store is reinitialized empty; the data loss is deliberate and the
// condition is reported through Recovered.
func Open(baseDir, workspace string) (*Store, error) {
	if workspace == "" {
		return nil, fmt.Errorf("open workspace store: workspace name is empty")
	}
	path := WorkspacePath(baseDir, workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace directory: %w", err)
	}

	conn, err := openAndMigrate(path)
	if err == nil {
		return &Store{conn: conn, workspace: workspace, path: path}, nil
	}
	if !errors.Is(err, ErrCorruptState) {
		return nil, err
	}

	// Corrupt on disk: move the file aside and start from an empty
	// default. The backup keeps the bytes around for a post-mortem.
	backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if renameErr := os.Rename(path, backup); renameErr != nil {
		return nil, fmt.Errorf("back up corrupt state: %w", renameErr)
	}
	conn, err = openAndMigrate(path)
	if err != nil {
		return nil, fmt.Errorf("reinitialize after corruption: %w", err)
	}
	return &Store{conn: conn, workspace: workspace, path: path, recovered: true}, nil
}

// openAndMigrate opens the SQLite file, verifies it is readable, and
// applies the schema. A failure to read or verify maps to ErrCorruptState.
func openAndMigrate(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	var check string
	if err := conn.QueryRow("PRAGMA integrity_check").Scan(&check); err != nil || check != "ok" {
		conn.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: integrity check: %v", ErrCorruptState, err)
		}
		return nil, fmt.Errorf("%w: integrity check reported %q", ErrCorruptState, check)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return conn, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	decision TEXT NOT NULL,
	reasoning TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bugs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	description TEXT NOT NULL,
	context TEXT,
	resolved INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS solutions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bug_id INTEGER NOT NULL REFERENCES bugs(id),
	agent_id TEXT NOT NULL,
	solution TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_states (
	agent_id TEXT PRIMARY KEY,
	role TEXT NOT NULL,
	status TEXT NOT NULL,
	current_task TEXT,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spawns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id TEXT NOT NULL,
	spawned_id TEXT NOT NULL UNIQUE,
	task TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS team_configs (
	team_id TEXT PRIMARY KEY,
	parent_workspace TEXT NOT NULL,
	workspace TEXT NOT NULL,
	task TEXT NOT NULL,
	spawned_by TEXT NOT NULL,
	spawned_at TEXT NOT NULL,
	roles TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_context (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	level TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_spawns_status ON spawns(status);
CREATE INDEX IF NOT EXISTS idx_log_level ON log(level);
`

// Workspace returns the workspace namespace this store belongs to.
func (s *Store) Workspace() string {
	return s.workspace
}

// Path returns the path of the backing database file.
func (s *Store) Path() string {
	return s.path
}

// Recovered reports whether the store was reinitialized after finding a
// corrupt file on open.
func (s *Store) Recovered() bool {
	return s.recovered
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// exec runs a mutating statement under the workspace write lock.
func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Exec(query, args...)
}

// query runs a read under the shared lock.
func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn.Query(query, args...)
}

// queryRow runs a single-row read under the shared lock.
func (s *Store) queryRow(query string, args ...any) *sql.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn.QueryRow(query, args...)
}

// transaction runs fn inside one transaction under the write lock.
// This is the serialization boundary for multi-statement mutations.
func (s *Store) transaction(fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// formatTime formats a time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored time string.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
