// Package lifecycle decides where the protein store file lives and removes
// it when the cache is torn down.
//
// A Resolver picks the path once per ingest run. A Manager owns the open
// store and walks it through created, committed, closed and then deleted or
// retained. Deletion never fails loudly: a file that stays locked after the
// bounded retries is left in place with a warning.
package lifecycle
