// Package kv provides the durable key-value substrate backing the clip
// store and configuration. Values are opaque blobs; every write through
// the store is announced on a change-notification feed so other surfaces
// can react to edits they did not make themselves.
package kv

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Change describes one committed write. Old is nil when the key was
// absent before the write; New is nil when the key was deleted.
type Change struct {
	Key string
	Old []byte
	New []byte
}

// Store is a sqlite-backed key-value store.
type Store struct {
	db *sql.DB

	subMu sync.Mutex
	subs  map[chan Change]struct{}
}

// Open initializes the store at baseDir/glippy.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.glippy.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "glippy.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db, subs: make(map[chan Change]struct{})}, nil
}

// Close closes the underlying database and all subscriber channels.
func (s *Store) Close() error {
	s.subMu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan Change]struct{})
	s.subMu.Unlock()
	return s.db.Close()
}

// Get returns the values for the given keys. Absent keys are simply
// missing from the result map.
func (s *Store) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		var value []byte
		err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("kv get %q: %w", key, err)
		}
		result[key] = value
	}
	return result, nil
}

// Set writes all entries atomically and notifies subscribers once per key.
// The write is durable before Set returns.
func (s *Store) Set(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv set: %w", err)
	}
	defer tx.Rollback()

	changes := make([]Change, 0, len(entries))
	for key, value := range entries {
		var old []byte
		err := tx.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&old)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("kv set %q: %w", key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, updated_at) VALUES (?, ?, unixepoch())
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`, key, value)
		if err != nil {
			return fmt.Errorf("kv set %q: %w", key, err)
		}
		changes = append(changes, Change{Key: key, Old: old, New: value})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kv set commit: %w", err)
	}

	s.notify(changes)
	return nil
}

// Delete removes a key. Deleting an absent key is a no-op and produces
// no notification.
func (s *Store) Delete(ctx context.Context, key string) error {
	var old []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&old)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	s.notify([]Change{{Key: key, Old: old}})
	return nil
}

// Subscribe registers for the change feed. The returned channel is
// buffered; a subscriber that falls far behind misses updates rather
// than blocking writers. The channel is closed on Close.
func (s *Store) Subscribe() chan Change {
	ch := make(chan Change, 64)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *Store) Unsubscribe(ch chan Change) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

func (s *Store) notify(changes []Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		for _, c := range changes {
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// migrate runs schema migrations tracked via the user_version pragma.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS kv (
		  key        TEXT PRIMARY KEY,
		  value      TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
