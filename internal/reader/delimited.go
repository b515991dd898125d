package reader

import (
	"fmt"
	"strings"

	"github.com/roach88/protcache/internal/protein"
)

// ColumnOrder names the layout of a delimited protein file.
type ColumnOrder string

const (
	ColumnsSequence                    ColumnOrder = "sequence"
	ColumnsNameSequence                ColumnOrder = "name_sequence"
	ColumnsNameDescriptionSequence     ColumnOrder = "name_description_sequence"
	ColumnsNameDescriptionHashSequence ColumnOrder = "name_description_hash_sequence"
	ColumnsUniqueIDSequence            ColumnOrder = "uniqueid_sequence"
)

// DefaultDelimiter separates fields when none is configured.
const DefaultDelimiter = '\t'

// ColumnOrders lists every supported layout.
var ColumnOrders = []ColumnOrder{
	ColumnsSequence,
	ColumnsNameSequence,
	ColumnsNameDescriptionSequence,
	ColumnsNameDescriptionHashSequence,
	ColumnsUniqueIDSequence,
}

type columnLayout struct {
	name, description, sequence int // -1 when absent
	width                       int
}

var layouts = map[ColumnOrder]columnLayout{
	ColumnsSequence:                    {name: -1, description: -1, sequence: 0, width: 1},
	ColumnsNameSequence:                {name: 0, description: -1, sequence: 1, width: 2},
	ColumnsNameDescriptionSequence:     {name: 0, description: 1, sequence: 2, width: 3},
	ColumnsNameDescriptionHashSequence: {name: 0, description: 1, sequence: 3, width: 4},
	ColumnsUniqueIDSequence:            {name: 0, description: -1, sequence: 1, width: 2},
}

// ParseColumnOrder validates s as a ColumnOrder.
func ParseColumnOrder(s string) (ColumnOrder, error) {
	c := ColumnOrder(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := layouts[c]; !ok {
		return "", fmt.Errorf("unknown column order %q", s)
	}
	return c, nil
}

// DelimitedReader reads one protein per line with fields split by
// Delimiter. Blank lines are ignored; lines with too few fields are skipped
// and counted.
type DelimitedReader struct {
	Delimiter  rune
	Columns    ColumnOrder
	SkipHeader bool

	src     lineSource
	layout  columnLayout
	current protein.Entry
	skipped int
	started bool
}

// NewDelimitedReader returns a reader for the given layout. A zero delimiter
// selects tab and an empty column order selects name/description/sequence.
func NewDelimitedReader(delimiter rune, columns ColumnOrder, skipHeader bool) *DelimitedReader {
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}
	if columns == "" {
		columns = ColumnsNameDescriptionSequence
	}
	return &DelimitedReader{Delimiter: delimiter, Columns: columns, SkipHeader: skipHeader}
}

func (r *DelimitedReader) Open(path string) error {
	if r.Delimiter == 0 {
		r.Delimiter = DefaultDelimiter
	}
	if r.Columns == "" {
		r.Columns = ColumnsNameDescriptionSequence
	}
	layout, ok := layouts[r.Columns]
	if !ok {
		return fmt.Errorf("open %s: unknown column order %q", path, r.Columns)
	}
	if err := r.src.open(path); err != nil {
		return err
	}
	r.layout = layout
	r.current = protein.Entry{}
	r.skipped = 0
	r.started = false
	return nil
}

func (r *DelimitedReader) Next() bool {
	for {
		line, ok := r.src.nextLine()
		if !ok {
			return false
		}
		if !r.started {
			r.started = true
			if r.SkipHeader {
				continue
			}
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, string(r.Delimiter))
		if len(fields) < r.layout.width {
			r.skipped++
			continue
		}

		r.current = protein.Entry{
			Name:        r.field(fields, r.layout.name),
			Description: r.field(fields, r.layout.description),
			Sequence:    r.field(fields, r.layout.sequence),
		}
		return true
	}
}

func (r *DelimitedReader) field(fields []string, idx int) string {
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

// Skipped returns how many non-blank lines lacked the required fields.
func (r *DelimitedReader) Skipped() int { return r.skipped }

func (r *DelimitedReader) Entry() protein.Entry          { return r.current }
func (r *DelimitedReader) LinesRead() int                { return r.src.linesRead }
func (r *DelimitedReader) PercentFileProcessed() float64 { return r.src.percent() }
func (r *DelimitedReader) Err() error                    { return r.src.err }
func (r *DelimitedReader) Close() error                  { return r.src.close() }
