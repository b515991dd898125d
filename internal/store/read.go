package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	"github.com/roach88/protcache/internal/protein"
)

// Range bounds a read by UniqueSequenceID. Both ends are inclusive and a nil
// end is open.
type Range struct {
	Start *int64
	End   *int64
}

// All is the unbounded range.
func All() Range { return Range{} }

// From returns the range of IDs >= start.
func From(start int64) Range { return Range{Start: &start} }

// Between returns the inclusive range [start, end].
func Between(start, end int64) Range { return Range{Start: &start, End: &end} }

// where renders the range as a WHERE clause and its arguments.
func (r Range) where() (string, []any) {
	switch {
	case r.Start != nil && r.End != nil:
		return " WHERE UniqueSequenceID BETWEEN ? AND ?", []any{*r.Start, *r.End}
	case r.Start != nil:
		return " WHERE UniqueSequenceID >= ?", []any{*r.Start}
	case r.End != nil:
		return " WHERE UniqueSequenceID <= ?", []any{*r.End}
	default:
		return "", nil
	}
}

// Cursor is a lazy, forward-only iterator over cached proteins.
// It holds a database connection until Close is called or the rows are
// exhausted.
type Cursor struct {
	rows    *sql.Rows
	current protein.Record
	err     error
}

// Read streams proteins in UniqueSequenceID order. The caller must Close the
// cursor, including when iteration stops early.
func (s *Store) Read(ctx context.Context, r Range) (*Cursor, error) {
	db, err := s.readable()
	if err != nil {
		return nil, fmt.Errorf("read proteins: %w", err)
	}

	where, args := r.where()
	query := "SELECT UniqueSequenceID, Name, Description, Sequence, PercentCoverage FROM proteins" +
		where + " ORDER BY UniqueSequenceID ASC"
	s.logger.Debug("running query", "query", query, "args", args)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read proteins: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// Next advances to the next protein.
func (c *Cursor) Next() bool {
	if c.rows == nil || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	var rec protein.Record
	if err := c.rows.Scan(
		&rec.UniqueSequenceID, &rec.Name, &rec.Description, &rec.Sequence, &rec.PercentCoverage,
	); err != nil {
		c.err = fmt.Errorf("scan protein: %w", err)
		return false
	}
	c.current = rec
	return true
}

// Record returns the protein at the cursor position.
func (c *Cursor) Record() protein.Record {
	return c.current
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the cursor's connection.
func (c *Cursor) Close() error {
	if c.rows == nil {
		return nil
	}
	err := c.rows.Close()
	c.rows = nil
	return err
}

// Records returns an iterator over the proteins in r. Breaking out of the
// loop closes the underlying cursor.
func (s *Store) Records(ctx context.Context, r Range) iter.Seq2[protein.Record, error] {
	return func(yield func(protein.Record, error) bool) {
		cur, err := s.Read(ctx, r)
		if err != nil {
			yield(protein.Record{}, err)
			return
		}
		defer cur.Close()

		for cur.Next() {
			if !yield(cur.Record(), nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(protein.Record{}, err)
		}
	}
}

// Count returns the number of cached proteins.
func (s *Store) Count(ctx context.Context) (int, error) {
	db, err := s.readable()
	if err != nil {
		return 0, fmt.Errorf("count proteins: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM proteins").Scan(&n); err != nil {
		return 0, fmt.Errorf("count proteins: %w", err)
	}
	return n, nil
}

// Meta returns the run metadata recorded during the bulk load.
func (s *Store) Meta(ctx context.Context) (map[string]string, error) {
	db, err := s.readable()
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM cache_meta ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meta: %w", err)
	}
	return meta, nil
}
