// Package store provides the SQLite-backed protein cache.
//
// One store file backs one ingest run. The table is keyed by
// UniqueSequenceID, assigned from 0 in file-read order:
//
//	proteins(UniqueSequenceID, Name, Description, Sequence, PercentCoverage)
//
// # Lifecycle
//
//   - Create: new file, schema created (fails if it already exists)
//   - BeginBulkInsert: journal_mode=OFF, synchronous=0, one transaction
//   - Commit: synchronous=1, store becomes readable
//   - Read / Records / Count: ordered by UniqueSequenceID
//
// Reads before the commit return ErrNotCommitted. The file is scratch space
// owned by the lifecycle manager, which deletes it at teardown.
package store
