// Package config holds the ingest options collected by a front end: input
// format selection, delimited layout, FASTA marker characters, sequence
// normalization and store retention.
//
// Options are assembled in layers: Default, then an optional YAML file
// (Load), then PROTCACHE_* environment variables (ApplyEnv). Validate must
// pass before the options are used; invalid values are rejected instead of
// being ignored.
package config

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/roach88/protcache/internal/lifecycle"
	"github.com/roach88/protcache/internal/normalize"
	"github.com/roach88/protcache/internal/notify"
	"github.com/roach88/protcache/internal/reader"
)

// Options is the flag set consumed by an ingest run.
//
// Marker and delimiter characters are strings holding exactly one rune so
// they survive YAML and environment round trips.
type Options struct {
	// StoreFile is the base name of the cache file.
	StoreFile string `yaml:"store_file" json:"store_file" env:"PROTCACHE_STORE_FILE"`

	// RetainStore keeps the cache file on disk at teardown.
	RetainStore bool `yaml:"retain_store" json:"retain_store" env:"PROTCACHE_RETAIN_STORE"`

	AssumeFasta     bool `yaml:"assume_fasta" json:"assume_fasta" env:"PROTCACHE_ASSUME_FASTA"`
	AssumeDelimited bool `yaml:"assume_delimited" json:"assume_delimited" env:"PROTCACHE_ASSUME_DELIMITED"`

	RecordStart  string `yaml:"record_start" json:"record_start" env:"PROTCACHE_RECORD_START"`
	AccessionEnd string `yaml:"accession_end" json:"accession_end" env:"PROTCACHE_ACCESSION_END"`

	Delimiter  string `yaml:"delimiter" json:"delimiter" env:"PROTCACHE_DELIMITER"`
	Columns    string `yaml:"columns" json:"columns" env:"PROTCACHE_COLUMNS"`
	SkipHeader bool   `yaml:"skip_header" json:"skip_header" env:"PROTCACHE_SKIP_HEADER"`

	StripSymbols bool `yaml:"strip_symbols" json:"strip_symbols" env:"PROTCACHE_STRIP_SYMBOLS"`
	Lowercase    bool `yaml:"lowercase" json:"lowercase" env:"PROTCACHE_LOWERCASE"`
	Uppercase    bool `yaml:"uppercase" json:"uppercase" env:"PROTCACHE_UPPERCASE"`
	UnifyIL      bool `yaml:"unify_il" json:"unify_il" env:"PROTCACHE_UNIFY_IL"`

	// ProgressInterval is the number of cached proteins between progress
	// notifications.
	ProgressInterval int `yaml:"progress_interval" json:"progress_interval" env:"PROTCACHE_PROGRESS_INTERVAL"`
}

// Default returns the options used when nothing is configured.
func Default() Options {
	return Options{
		StoreFile:        lifecycle.DefaultStoreFileName,
		RecordStart:      ">",
		AccessionEnd:     " ",
		Delimiter:        string(reader.DefaultDelimiter),
		Columns:          string(reader.ColumnsNameDescriptionSequence),
		StripSymbols:     true,
		ProgressInterval: notify.DefaultProgressInterval,
	}
}

// Load reads a YAML options file on top of Default. Unknown keys are
// rejected so typos do not go unnoticed. The result is not validated.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("failed to read options file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil {
		return opts, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return opts, nil
}

// NormalizeOptions returns the sequence normalization settings.
func (o Options) NormalizeOptions() normalize.Options {
	return normalize.Options{
		StripSymbols: o.StripSymbols,
		Lowercase:    o.Lowercase,
		Uppercase:    o.Uppercase,
		UnifyIL:      o.UnifyIL,
	}
}

// ReaderOptions returns the reader settings. Call Validate first; an
// invalid character field yields utf8.RuneError.
func (o Options) ReaderOptions() reader.Options {
	return reader.Options{
		RecordStart:  firstRune(o.RecordStart),
		AccessionEnd: firstRune(o.AccessionEnd),
		Delimiter:    firstRune(o.Delimiter),
		Columns:      reader.ColumnOrder(o.Columns),
		SkipHeader:   o.SkipHeader,
	}
}

// Format picks the reader format for path.
func (o Options) Format(path string) reader.Format {
	return reader.Select(path, o.AssumeFasta, o.AssumeDelimited)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
