// internal/store/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout).
//   - One-time, race-safe initialization (double-checked flag + mutex).
//   - Applying embedded migrations (recorded in _migrations).
//
// Timestamps are stored as INTEGER Unix nanoseconds so LastUpdated can be
// compared exactly by the optimistic update check.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pointbattle/assets"
)

// SQLiteStore persists games in a single SQLite file.
type SQLiteStore struct {
	path string

	initMu      sync.Mutex  // serializes the first Initialize
	initialized atomic.Bool // fast path once tables exist
	db          *sql.DB
}

// NewSQLiteStore returns a store for the database file at path.
// Nothing is opened until the first operation (or an explicit Initialize).
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Initialize creates the database file and tables exactly once.
// A failure leaves the store uninitialized so the next call retries.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	if s.initialized.Load() {
		return nil
	}
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized.Load() {
		return nil
	}

	db, err := openDB(s.path)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("database initialization failed")
		return fmt.Errorf("initialize store: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		log.Error().Err(err).Str("path", s.path).Msg("database initialization failed")
		return fmt.Errorf("initialize store: %w", err)
	}

	s.db = db
	s.initialized.Store(true)
	log.Info().Str("path", s.path).Msg("database initialized")
	return nil
}

// Close releases the database handle. The store can be re-initialized afterwards.
func (s *SQLiteStore) Close() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if !s.initialized.Load() {
		return nil
	}
	s.initialized.Store(false)
	err := s.db.Close()
	s.db = nil
	return err
}

// openDB opens (and creates if missing) a SQLite database file.
//
//   - Ensures the parent directory exists.
//   - Configures busy timeout and WAL journaling.
//   - Verifies the connection with a ping.
func openDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite serializes writes anyway and a single
	// connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// migrate applies the embedded SQL migrations.
//
//   - Uses a _migrations table to track applied files.
//   - Executes each file in lexical order inside its own transaction.
//   - Skips files already recorded.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		body, err := assets.Read(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name, applied_at) VALUES (?, ?)`, f, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}
