package reader

import (
	"strings"

	"github.com/roach88/protcache/internal/protein"
)

// Default FASTA marker characters.
const (
	DefaultRecordStart  = '>'
	DefaultAccessionEnd = ' '
)

// FastaReader reads FASTA files. A record starts at a line beginning with
// RecordStart; the accession runs to the first AccessionEnd and the rest of
// the header line is the description. Sequence lines are concatenated until
// the next header or end of file.
type FastaReader struct {
	RecordStart  rune
	AccessionEnd rune

	src        lineSource
	current    protein.Entry
	pendingHdr string
	hasPending bool
}

// NewFastaReader returns a reader using the given marker characters.
// Zero runes select the defaults.
func NewFastaReader(recordStart, accessionEnd rune) *FastaReader {
	if recordStart == 0 {
		recordStart = DefaultRecordStart
	}
	if accessionEnd == 0 {
		accessionEnd = DefaultAccessionEnd
	}
	return &FastaReader{RecordStart: recordStart, AccessionEnd: accessionEnd}
}

func (r *FastaReader) Open(path string) error {
	if r.RecordStart == 0 {
		r.RecordStart = DefaultRecordStart
	}
	if r.AccessionEnd == 0 {
		r.AccessionEnd = DefaultAccessionEnd
	}
	r.current = protein.Entry{}
	r.pendingHdr = ""
	r.hasPending = false
	return r.src.open(path)
}

func (r *FastaReader) Next() bool {
	header, ok := r.pendingHdr, r.hasPending
	r.hasPending = false

	// Skip anything before the first header.
	for !ok {
		line, more := r.src.nextLine()
		if !more {
			return false
		}
		if rest, isHeader := r.headerText(line); isHeader {
			header, ok = rest, true
		}
	}

	var seq strings.Builder
	for {
		line, more := r.src.nextLine()
		if !more {
			break
		}
		if rest, isHeader := r.headerText(line); isHeader {
			r.pendingHdr, r.hasPending = rest, true
			break
		}
		seq.WriteString(strings.TrimSpace(line))
	}
	if r.src.err != nil {
		return false
	}

	name, desc := r.splitHeader(header)
	r.current = protein.Entry{Name: name, Description: desc, Sequence: seq.String()}
	return true
}

func (r *FastaReader) headerText(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	prefix := string(r.RecordStart)
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	return trimmed[len(prefix):], true
}

func (r *FastaReader) splitHeader(header string) (name, description string) {
	header = strings.TrimSpace(header)
	idx := strings.IndexRune(header, r.AccessionEnd)
	if idx < 0 {
		return header, ""
	}
	sep := len(string(r.AccessionEnd))
	return strings.TrimSpace(header[:idx]), strings.TrimSpace(header[idx+sep:])
}

func (r *FastaReader) Entry() protein.Entry          { return r.current }
func (r *FastaReader) LinesRead() int                { return r.src.linesRead }
func (r *FastaReader) PercentFileProcessed() float64 { return r.src.percent() }
func (r *FastaReader) Err() error                    { return r.src.err }
func (r *FastaReader) Close() error                  { return r.src.close() }
