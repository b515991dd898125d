package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/protcache/internal/protein"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db3")
	s, err := Create(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createLoadedStore creates a committed store holding n proteins with IDs
// 0..n-1.
func createLoadedStore(t *testing.T, n int) *Store {
	t.Helper()
	s := createTestStore(t)
	ctx := context.Background()

	bulk, err := s.BeginBulkInsert(ctx)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, bulk.Insert(ctx, testRecord(int64(i))))
	}
	require.NoError(t, bulk.Commit(ctx))
	return s
}

func testRecord(id int64) protein.Record {
	return protein.Record{
		UniqueSequenceID: id,
		Name:             fmt.Sprintf("P%d", id),
		Description:      fmt.Sprintf("protein %d", id),
		Sequence:         "MKACDEFG",
	}
}
