// Package normalize applies the residue-level clean-up rules to protein
// sequences before they are cached.
//
// Peptide to protein matching downstream compares bytes, so the order of the
// rules is fixed:
//
//  1. symbol stripping (keep only A-Z and a-z)
//  2. case folding, lowercase taking precedence over uppercase
//  3. I/L unification, applied inside the fold branch when folding, or on
//     both cases independently when no fold is requested
package normalize

import "strings"

// Options selects which rules Sequence applies.
type Options struct {
	StripSymbols bool
	Lowercase    bool
	Uppercase    bool
	UnifyIL      bool
}

// Sequence returns raw normalized according to opts. It is deterministic and
// idempotent: Sequence(Sequence(s, o), o) == Sequence(s, o).
func Sequence(raw string, opts Options) string {
	seq := raw
	if opts.StripSymbols {
		seq = stripSymbols(seq)
	}

	switch {
	case opts.Lowercase:
		seq = strings.ToLower(seq)
		if opts.UnifyIL {
			seq = strings.ReplaceAll(seq, "l", "i")
		}
	case opts.Uppercase:
		seq = strings.ToUpper(seq)
		if opts.UnifyIL {
			seq = strings.ReplaceAll(seq, "L", "I")
		}
	case opts.UnifyIL:
		seq = strings.ReplaceAll(seq, "L", "I")
		seq = strings.ReplaceAll(seq, "l", "i")
	}

	return seq
}

// stripSymbols drops every byte outside [A-Za-z]. Multi-byte runes are
// dropped as well since none of their bytes are ASCII letters.
func stripSymbols(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if isLetter(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}
