package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/protcache/internal/protein"
)

// Metadata keys written by the ingest run.
const (
	MetaRunID       = "run_id"
	MetaSourcePath  = "source_path"
	MetaFormat      = "format"
	MetaRecordCount = "record_count"
	MetaCreatedAt   = "created_at"
)

// BulkInsert is the single write transaction of an ingest run.
// Rows are inserted with a prepared statement and nothing is visible to
// readers until Commit.
type BulkInsert struct {
	store *Store
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	rows  int
	done  bool
}

// BeginBulkInsert disables journaling, drops synchronous mode to OFF and
// opens the ingest transaction. The store is disposable scratch space, so
// durability is traded for insert throughput.
func (s *Store) BeginBulkInsert(ctx context.Context) (*BulkInsert, error) {
	db, err := s.conn()
	if err != nil {
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}
	if s.committed.Load() {
		return nil, fmt.Errorf("begin bulk insert: %w", ErrAlreadyCommitted)
	}
	if !s.bulkActive.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("begin bulk insert: transaction already open")
	}

	if err := s.applyPragmas(ctx, db, "PRAGMA journal_mode = OFF", "PRAGMA synchronous = 0"); err != nil {
		s.bulkActive.Store(false)
		return nil, fmt.Errorf("begin bulk insert: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.bulkActive.Store(false)
		return nil, fmt.Errorf("begin bulk insert: begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO proteins
		(UniqueSequenceID, Name, Description, Sequence, PercentCoverage)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		s.bulkActive.Store(false)
		return nil, fmt.Errorf("begin bulk insert: prepare: %w", err)
	}

	return &BulkInsert{store: s, db: db, tx: tx, stmt: stmt}, nil
}

// Insert adds one protein row to the open transaction.
func (b *BulkInsert) Insert(ctx context.Context, rec protein.Record) error {
	if b.done {
		return fmt.Errorf("insert protein %d: transaction finished", rec.UniqueSequenceID)
	}
	_, err := b.stmt.ExecContext(ctx,
		rec.UniqueSequenceID,
		rec.Name,
		rec.Description,
		rec.Sequence,
		rec.PercentCoverage,
	)
	if err != nil {
		return fmt.Errorf("insert protein %d: %w", rec.UniqueSequenceID, err)
	}
	b.rows++
	return nil
}

// SetMeta records a metadata value inside the transaction.
func (b *BulkInsert) SetMeta(ctx context.Context, key, value string) error {
	if b.done {
		return fmt.Errorf("set meta %s: transaction finished", key)
	}
	_, err := b.tx.ExecContext(ctx, `
		INSERT INTO cache_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// Rows returns the number of rows inserted so far.
func (b *BulkInsert) Rows() int {
	return b.rows
}

// Commit finalizes the transaction, restores synchronous=NORMAL and opens
// the store for reading.
func (b *BulkInsert) Commit(ctx context.Context) error {
	if b.done {
		return fmt.Errorf("commit: transaction finished")
	}
	b.done = true
	defer b.store.bulkActive.Store(false)

	b.stmt.Close()
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := b.store.applyPragmas(ctx, b.db, "PRAGMA synchronous = 1"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	b.store.committed.Store(true)
	b.db.SetMaxOpenConns(readConns)
	return nil
}

// Rollback abandons the transaction. With journaling off SQLite cannot
// guarantee the file is intact afterwards, so the store stays unreadable
// and should be deleted.
func (b *BulkInsert) Rollback() error {
	if b.done {
		return nil
	}
	b.done = true
	defer b.store.bulkActive.Store(false)

	b.stmt.Close()
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// UpdateCoverage stores the coverage engine's result for one protein.
// Open read cursors hold a shared lock, so close them before writing.
func (s *Store) UpdateCoverage(ctx context.Context, id int64, pct float64) error {
	if err := protein.ValidateCoverage(pct); err != nil {
		return fmt.Errorf("update coverage %d: %w", id, err)
	}
	db, err := s.readable()
	if err != nil {
		return fmt.Errorf("update coverage %d: %w", id, err)
	}

	result, err := db.ExecContext(ctx, `
		UPDATE proteins SET PercentCoverage = ? WHERE UniqueSequenceID = ?
	`, pct, id)
	if err != nil {
		return fmt.Errorf("update coverage %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update coverage %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update coverage %d: %w", id, sql.ErrNoRows)
	}
	return nil
}
