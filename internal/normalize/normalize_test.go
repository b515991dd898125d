package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence_Rules(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts Options
		want string
	}{
		{"no rules", "Ac-D*eL l", Options{}, "Ac-D*eL l"},
		{"strip only", "AC-D*E 12\tFgL", Options{StripSymbols: true}, "ACDEFgL"},
		{"strip drops multibyte", "AÇDé", Options{StripSymbols: true}, "AD"},
		{"lowercase", "ACDL", Options{Lowercase: true}, "acdl"},
		{"lowercase with IL", "ACDLl", Options{Lowercase: true, UnifyIL: true}, "acdii"},
		{"uppercase", "acdl", Options{Uppercase: true}, "ACDL"},
		{"uppercase with IL", "acdlL", Options{Uppercase: true, UnifyIL: true}, "ACDII"},
		{"lowercase wins over uppercase", "AbL", Options{Lowercase: true, Uppercase: true}, "abl"},
		{"IL only keeps case", "LlIiK", Options{UnifyIL: true}, "IiIiK"},
		{"all rules", "m-L*l.K", Options{StripSymbols: true, Uppercase: true, UnifyIL: true}, "MIIK"},
		{"empty", "", Options{StripSymbols: true, UnifyIL: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sequence(tt.raw, tt.opts))
		})
	}
}

func TestSequence_Idempotent(t *testing.T) {
	inputs := []string{"ACDEFGL", "ll-II*kk", "MkL\tLq", "", "xyz123LLl"}
	options := []Options{
		{},
		{StripSymbols: true},
		{Lowercase: true, UnifyIL: true},
		{Uppercase: true, UnifyIL: true},
		{UnifyIL: true},
		{StripSymbols: true, Lowercase: true},
	}

	for _, in := range inputs {
		for _, opts := range options {
			once := Sequence(in, opts)
			assert.Equal(t, once, Sequence(once, opts), "input %q opts %+v", in, opts)
		}
	}
}

func TestSequence_StripLeavesOnlyLetters(t *testing.T) {
	raw := "A!B@C#1 2\r\n3-L.l_z~Ω"
	got := Sequence(raw, Options{StripSymbols: true})
	for _, r := range got {
		assert.True(t, ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z'), "unexpected %q in %q", r, got)
	}
}

func TestSequence_UnifyILRemovesL(t *testing.T) {
	raw := "LLLlllMKLIl"
	for _, opts := range []Options{
		{UnifyIL: true},
		{UnifyIL: true, Lowercase: true},
		{UnifyIL: true, Uppercase: true},
		{UnifyIL: true, StripSymbols: true},
	} {
		got := Sequence(raw, opts)
		assert.False(t, strings.ContainsAny(got, "Ll"), "opts %+v produced %q", opts, got)
	}
}
