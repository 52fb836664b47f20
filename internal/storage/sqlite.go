package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps all keys in a single kv table. The database is opened
// lazily on first use.
type SQLiteStore struct {
	path string
	lock *flock.Flock

	mu sync.Mutex
	db *sql.DB

	// serializes Update within this process; the file lock covers other processes
	txMu sync.Mutex
}

// NewSQLiteStore returns a store backed by the database file at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) open() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}
	if s.path == "" {
		return nil, fmt.Errorf("%w: no database path configured", ErrUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrUnavailable, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER
	);
	`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create tables: %v", ErrUnavailable, err)
	}

	s.db = db
	return db, nil
}

// Close closes the database connection. The store reopens on next use.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	db, err := s.open()
	if err != nil {
		return "", false, err
	}
	var value string
	err = db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	if _, err := db.Exec(upsertQuery, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	if _, err := db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

const upsertQuery = `
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

func (s *SQLiteStore) Update(key string, fn UpdateFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	// open creates the directory the lock file lives in
	if _, err := s.open(); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("%w: lock %s: %v", ErrUnavailable, s.lock.Path(), err)
	}
	defer s.lock.Unlock()

	return s.withTx(func(tx *sql.Tx) error {
		var (
			current string
			ok      = true
		)
		err := tx.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			ok = false
		} else if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		next, err := fn(current, ok)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(upsertQuery, key, next, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Transaction helper
func (s *SQLiteStore) withTx(fn func(*sql.Tx) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
