package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// readConns is the connection pool size once the bulk load is committed.
const readConns = 4

var (
	// ErrNotCommitted is returned by reads issued before the bulk load
	// committed, or after it was rolled back.
	ErrNotCommitted = errors.New("store not committed")

	// ErrAlreadyCommitted is returned when a second bulk load is attempted.
	ErrAlreadyCommitted = errors.New("store already committed")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store closed")
)

// Store is the SQLite file holding one ingest run's proteins.
//
// The lifecycle is strictly write-then-read: one BulkInsert fills the
// proteins table, and only after it commits are reads allowed.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	db     *sql.DB
	closed bool

	bulkActive atomic.Bool
	committed  atomic.Bool
}

// Create opens a new SQLite database at path and creates the schema.
// It fails if the file already holds a proteins table; callers are expected
// to hand it a fresh path.
//
// The pool is limited to one connection until the bulk load commits, so the
// journaling pragmas applied by BeginBulkInsert stick to the connection that
// runs the transaction.
func Create(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := path + "?_busy_timeout=5000"
	logger.Debug("connecting to SQLite DB", "path", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{path: path, logger: logger, db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

func (s *Store) createSchema() error {
	s.logger.Debug("creating protein table", "path", s.path)
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return err
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Committed reports whether the bulk load has committed.
func (s *Store) Committed() bool {
	return s.committed.Load()
}

// Close closes the database connection. Calling it more than once is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.db == nil {
		return nil
	}
	s.closed = true
	s.logger.Debug("closing SQLite connection", "path", s.path)
	return s.db.Close()
}

// conn returns the open database or ErrClosed.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// readable returns the database if reads are allowed.
func (s *Store) readable() (*sql.DB, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if !s.committed.Load() {
		return nil, ErrNotCommitted
	}
	return db, nil
}

// applyPragmas runs each pragma in order on the store's connection.
func (s *Store) applyPragmas(ctx context.Context, db *sql.DB, pragmas ...string) error {
	for _, pragma := range pragmas {
		s.logger.Debug("applying pragma", "pragma", pragma)
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
