// Package reader turns protein files into a stream of raw entries.
//
// Two encodings are supported behind the Reader interface:
//
//   - FASTA: header lines start with a marker character (">" by default),
//     the accession ends at a separator (space by default) and sequence
//     lines follow until the next header.
//   - Delimited text: one protein per line, fields split by a delimiter
//     (tab by default) in one of the ColumnOrders layouts, with an optional
//     header line.
//
// Select chooses the encoding from the caller's overrides and the file
// extension.
package reader
