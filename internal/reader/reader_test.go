package reader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/protcache/internal/protein"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readAll(t *testing.T, r Reader, path string) []protein.Entry {
	t.Helper()
	require.NoError(t, r.Open(path))
	defer r.Close()

	var entries []protein.Entry
	for r.Next() {
		entries = append(entries, r.Entry())
	}
	require.NoError(t, r.Err())
	return entries
}

func TestIsFastaFile(t *testing.T) {
	assert.True(t, IsFastaFile("db.fasta"))
	assert.True(t, IsFastaFile("/x/y/db.FSA"))
	assert.True(t, IsFastaFile("db.faa"))
	assert.False(t, IsFastaFile("db.txt"))
	assert.False(t, IsFastaFile("db.fasta.gz"))
	assert.False(t, IsFastaFile("fasta"))
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		assumeFasta     bool
		assumeDelimited bool
		want            Format
	}{
		{"forced fasta wins", "proteins.txt", true, true, FormatFasta},
		{"forced delimited", "proteins.fasta", false, true, FormatDelimited},
		{"extension", "proteins.faa", false, false, FormatFasta},
		{"default", "proteins.txt", false, false, FormatFasta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.path, tt.assumeFasta, tt.assumeDelimited))
		})
	}
}

func TestFastaReader_Basic(t *testing.T) {
	path := writeFile(t, "p.fasta", ">P1 desc1\nACDEFGL\n>P2 desc2\nLLIIKK\n")

	entries := readAll(t, NewFastaReader(0, 0), path)
	assert.Equal(t, []protein.Entry{
		{Name: "P1", Description: "desc1", Sequence: "ACDEFGL"},
		{Name: "P2", Description: "desc2", Sequence: "LLIIKK"},
	}, entries)
}

func TestFastaReader_MultiLineAndNoise(t *testing.T) {
	content := "leading junk\n\n>sp|P1|A multi word  description \r\nACD\r\n  EFG \n\n>P2\nKK\n>P3 empty\n"
	path := writeFile(t, "p.fasta", content)

	r := NewFastaReader(0, 0)
	entries := readAll(t, r, path)
	require.Len(t, entries, 3)
	assert.Equal(t, protein.Entry{Name: "sp|P1|A", Description: "multi word  description", Sequence: "ACDEFG"}, entries[0])
	assert.Equal(t, protein.Entry{Name: "P2", Description: "", Sequence: "KK"}, entries[1])
	assert.Equal(t, protein.Entry{Name: "P3", Description: "empty", Sequence: ""}, entries[2])
	assert.Equal(t, 9, r.LinesRead())
}

func TestFastaReader_CustomMarkers(t *testing.T) {
	path := writeFile(t, "p.txt", "@P1|first protein\nMK\n@P2|second\nLL\n")

	entries := readAll(t, NewFastaReader('@', '|'), path)
	require.Len(t, entries, 2)
	assert.Equal(t, "P1", entries[0].Name)
	assert.Equal(t, "first protein", entries[0].Description)
	assert.Equal(t, "LL", entries[1].Sequence)
}

func TestFastaReader_LongSingleLineSequence(t *testing.T) {
	seq := strings.Repeat("ACDEFGHIKLMNPQRSTVWY", 20000)
	path := writeFile(t, "long.fasta", ">Long\n"+seq+"\n")

	entries := readAll(t, NewFastaReader(0, 0), path)
	require.Len(t, entries, 1)
	assert.Equal(t, len(seq), len(entries[0].Sequence))
}

func TestFastaReader_Progress(t *testing.T) {
	path := writeFile(t, "p.fasta", ">A\nMK\n>B\nMK\n")

	r := NewFastaReader(0, 0)
	require.NoError(t, r.Open(path))
	defer r.Close()
	assert.Equal(t, 0.0, r.PercentFileProcessed())

	require.True(t, r.Next())
	mid := r.PercentFileProcessed()
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 100.0)

	require.True(t, r.Next())
	assert.False(t, r.Next())
	assert.Equal(t, 100.0, r.PercentFileProcessed())
}

func TestReaders_ProgressCountsCRLF(t *testing.T) {
	tests := []struct {
		name    string
		reader  Reader
		content string
		want    []protein.Entry
	}{
		{
			name:    "fasta",
			reader:  NewFastaReader(0, 0),
			content: ">A one\r\nMK\r\n>B two\r\nLL\r\n",
			want: []protein.Entry{
				{Name: "A", Description: "one", Sequence: "MK"},
				{Name: "B", Description: "two", Sequence: "LL"},
			},
		},
		{
			name:    "delimited",
			reader:  NewDelimitedReader(0, "", false),
			content: "A\tone\tMK\r\nB\ttwo\tLL\r\n",
			want: []protein.Entry{
				{Name: "A", Description: "one", Sequence: "MK"},
				{Name: "B", Description: "two", Sequence: "LL"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "crlf.txt", tt.content)
			require.NoError(t, tt.reader.Open(path))
			defer tt.reader.Close()

			var got []protein.Entry
			for tt.reader.Next() {
				got = append(got, tt.reader.Entry())
			}
			require.NoError(t, tt.reader.Err())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 100.0, tt.reader.PercentFileProcessed())
		})
	}
}

func TestReaders_ProgressCountsCRLFMidway(t *testing.T) {
	content := "A\tone\tMK\r\nB\ttwo\tLL\r\n"
	path := writeFile(t, "crlf.tsv", content)

	r := NewDelimitedReader(0, "", false)
	require.NoError(t, r.Open(path))
	defer r.Close()

	require.True(t, r.Next())
	assert.InDelta(t, 50.0, r.PercentFileProcessed(), 1e-9)
}

func TestFastaReader_OpenMissingFile(t *testing.T) {
	r := NewFastaReader(0, 0)
	err := r.Open(filepath.Join(t.TempDir(), "missing.fasta"))
	require.Error(t, err)
	assert.False(t, r.Next())
	assert.NoError(t, r.Close())
}

func TestFastaReader_OpenDirectory(t *testing.T) {
	r := NewFastaReader(0, 0)
	require.Error(t, r.Open(t.TempDir()))
}

func TestDelimitedReader_Basic(t *testing.T) {
	path := writeFile(t, "p.txt", "P1\tdescA\tACDK\nP2\tdescB\tLLMK\n")

	entries := readAll(t, NewDelimitedReader(0, "", false), path)
	assert.Equal(t, []protein.Entry{
		{Name: "P1", Description: "descA", Sequence: "ACDK"},
		{Name: "P2", Description: "descB", Sequence: "LLMK"},
	}, entries)
}

func TestDelimitedReader_HeaderBlankAndShortLines(t *testing.T) {
	content := "Name,Description,Sequence\n\nP1,d1,MK\nbroken line\nP2,d2,LL\n"
	path := writeFile(t, "p.csv", content)

	r := NewDelimitedReader(',', ColumnsNameDescriptionSequence, true)
	entries := readAll(t, r, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "P1", entries[0].Name)
	assert.Equal(t, "P2", entries[1].Name)
	assert.Equal(t, 1, r.Skipped())
	assert.Equal(t, 5, r.LinesRead())
}

func TestDelimitedReader_ColumnOrders(t *testing.T) {
	tests := []struct {
		columns ColumnOrder
		line    string
		want    protein.Entry
	}{
		{ColumnsSequence, "MKL", protein.Entry{Sequence: "MKL"}},
		{ColumnsNameSequence, "P1\tMKL", protein.Entry{Name: "P1", Sequence: "MKL"}},
		{ColumnsNameDescriptionSequence, "P1\td\tMKL", protein.Entry{Name: "P1", Description: "d", Sequence: "MKL"}},
		{ColumnsNameDescriptionHashSequence, "P1\td\tabc123\tMKL", protein.Entry{Name: "P1", Description: "d", Sequence: "MKL"}},
		{ColumnsUniqueIDSequence, "42\tMKL", protein.Entry{Name: "42", Sequence: "MKL"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.columns), func(t *testing.T) {
			path := writeFile(t, "p.txt", tt.line+"\n")
			entries := readAll(t, NewDelimitedReader('\t', tt.columns, false), path)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0])
		})
	}
}

func TestDelimitedReader_UnknownColumns(t *testing.T) {
	path := writeFile(t, "p.txt", "P1\tMK\n")
	r := NewDelimitedReader('\t', ColumnOrder("bogus"), false)
	require.Error(t, r.Open(path))
}

func TestParseColumnOrder(t *testing.T) {
	c, err := ParseColumnOrder(" Name_Sequence ")
	require.NoError(t, err)
	assert.Equal(t, ColumnsNameSequence, c)

	_, err = ParseColumnOrder("sequence_name")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	_, ok := New(FormatFasta, Options{}).(*FastaReader)
	assert.True(t, ok)
	d, ok := New(FormatDelimited, Options{Delimiter: ';', Columns: ColumnsNameSequence}).(*DelimitedReader)
	require.True(t, ok)
	assert.Equal(t, ';', d.Delimiter)
}
