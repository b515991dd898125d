package reader

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/protcache/internal/protein"
)

// Format identifies a supported protein file encoding.
type Format string

const (
	FormatFasta     Format = "fasta"
	FormatDelimited Format = "delimited"
)

// maxLineSize allows very long single-line sequences (64 MiB).
const maxLineSize = 64 * 1024 * 1024

// Reader is the common contract of the protein file readers.
//
// Usage mirrors bufio.Scanner: call Next until it returns false, then check
// Err to tell end of input from a read failure.
type Reader interface {
	Open(path string) error
	Next() bool
	Entry() protein.Entry
	LinesRead() int
	// PercentFileProcessed returns how much of the file has been consumed,
	// from 0 to 100.
	PercentFileProcessed() float64
	Err() error
	Close() error
}

// IsFastaFile reports whether path has a FASTA extension
// (.fasta, .fsa or .faa, case-insensitive).
func IsFastaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fasta", ".fsa", ".faa":
		return true
	}
	return false
}

// Select picks the format for path. A forced FASTA format wins over a forced
// delimited format; without either, the extension decides and FASTA is the
// default.
func Select(path string, assumeFasta, assumeDelimited bool) Format {
	switch {
	case assumeFasta:
		return FormatFasta
	case assumeDelimited:
		return FormatDelimited
	case IsFastaFile(path):
		return FormatFasta
	default:
		return FormatFasta
	}
}

// lineSource is the file plumbing shared by both readers: a line scanner
// over an open file with byte-level progress tracking.
type lineSource struct {
	file      *os.File
	scanner   *bufio.Scanner
	size      int64
	consumed  int64
	linesRead int
	err       error
}

func (s *lineSource) open(path string) error {
	if s.file != nil {
		return fmt.Errorf("open %s: reader already open", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return fmt.Errorf("open %s: is a directory", path)
	}

	*s = lineSource{file: f, size: info.Size()}
	s.scanner = bufio.NewScanner(f)
	s.scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	s.scanner.Split(s.scanLines)
	return nil
}

// scanLines is bufio.ScanLines with byte accounting: advance covers the
// full terminator, so CRLF lines count both bytes.
func (s *lineSource) scanLines(data []byte, atEOF bool) (int, []byte, error) {
	advance, token, err := bufio.ScanLines(data, atEOF)
	if token != nil {
		s.consumed += int64(advance)
	}
	return advance, token, err
}

// nextLine returns the next line without its line terminator.
func (s *lineSource) nextLine() (string, bool) {
	if s.scanner == nil || s.err != nil {
		return "", false
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			s.err = fmt.Errorf("line %d: %w", s.linesRead+1, err)
		}
		return "", false
	}
	s.linesRead++
	return s.scanner.Text(), true
}

func (s *lineSource) percent() float64 {
	if s.size <= 0 {
		return 0
	}
	pct := float64(s.consumed) / float64(s.size) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func (s *lineSource) close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.scanner = nil
	return err
}

// Options carries the settings of both reader variants.
type Options struct {
	RecordStart  rune
	AccessionEnd rune
	Delimiter    rune
	Columns      ColumnOrder
	SkipHeader   bool
}

// New returns an unopened reader for format.
func New(format Format, opts Options) Reader {
	if format == FormatDelimited {
		return NewDelimitedReader(opts.Delimiter, opts.Columns, opts.SkipHeader)
	}
	return NewFastaReader(opts.RecordStart, opts.AccessionEnd)
}
