// Package protein defines the protein record types shared by the readers,
// the cache store and the coverage engine that consumes the cache.
package protein

import "fmt"

// Entry is a raw protein as produced by a file reader, before sequence
// normalization and ID assignment.
type Entry struct {
	Name        string
	Description string
	Sequence    string
}

// Record is a cached protein.
//
// UniqueSequenceID is assigned in file-read order starting at 0 and is the
// primary key of the cache store. PercentCoverage is a fraction in [0,1];
// it is 0 at ingest time and only changed by the coverage engine.
type Record struct {
	UniqueSequenceID int64   `json:"unique_sequence_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Sequence         string  `json:"sequence"`
	PercentCoverage  float64 `json:"percent_coverage"`
}

// ValidateCoverage reports whether pct is a usable PercentCoverage value.
func ValidateCoverage(pct float64) error {
	if pct < 0 || pct > 1 || pct != pct {
		return fmt.Errorf("percent coverage %v outside [0,1]", pct)
	}
	return nil
}
