// Package cache is the entry point of the protein ingestion cache.
//
// A Cache reads one FASTA or delimited protein file into a fresh SQLite
// store, assigning zero-based IDs in file order and normalizing each
// sequence on the way in. Once the bulk load commits, the coverage engine
// reads the records back by ID range and writes coverage values. Teardown
// removes the store file unless retention is configured.
//
// Ingest is all or nothing: if reading, inserting or committing fails, the
// partial store is discarded and an *IngestError describes the failure.
//
// Status, warning, error and debug messages go to the configured slog
// logger. Caching progress goes to the notify.Reporter passed to Ingest.
// Each run is traced as a "protcache.ingest" span and counted with
// OpenTelemetry metrics.
package cache
