package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/protcache/internal/config"
)

// optionFlags mirrors config.Options on the command line. A flag only
// overrides the options file and environment when it is set explicitly.
type optionFlags struct {
	storeFile        string
	keepDB           bool
	assumeFasta      bool
	assumeDelimited  bool
	recordStart      string
	accessionEnd     string
	delimiter        string
	columns          string
	skipHeader       bool
	stripSymbols     bool
	lowercase        bool
	uppercase        bool
	ignoreIL         bool
	progressInterval int
}

func addOptionFlags(cmd *cobra.Command, f *optionFlags) {
	def := config.Default()
	flags := cmd.Flags()

	flags.StringVar(&f.storeFile, "store-file", def.StoreFile, "cache file name")
	flags.BoolVar(&f.keepDB, "keep-db", false, "keep the cache file after the run")
	flags.BoolVar(&f.assumeFasta, "fasta", false, "treat the input as FASTA regardless of extension")
	flags.BoolVar(&f.assumeDelimited, "delimited", false, "treat the input as a delimited file")
	flags.StringVar(&f.recordStart, "record-start", def.RecordStart, "FASTA record start character")
	flags.StringVar(&f.accessionEnd, "accession-end", def.AccessionEnd, "FASTA accession end character")
	flags.StringVar(&f.delimiter, "delimiter", "tab", "delimited field separator (a single character, or tab)")
	flags.StringVar(&f.columns, "columns", def.Columns, "delimited column order")
	flags.BoolVar(&f.skipHeader, "skip-header", false, "skip the first line of a delimited file")
	flags.BoolVar(&f.stripSymbols, "strip-symbols", def.StripSymbols, "remove characters other than letters from sequences (--strip-symbols=false keeps them)")
	flags.BoolVar(&f.lowercase, "lowercase", false, "fold sequences to lowercase")
	flags.BoolVar(&f.uppercase, "uppercase", false, "fold sequences to uppercase")
	flags.BoolVar(&f.ignoreIL, "ignore-il", false, "treat I and L as equivalent (L becomes I)")
	flags.IntVar(&f.progressInterval, "progress-interval", def.ProgressInterval, "proteins between progress reports")
}

// loadOptions layers the options file, the environment and explicit flags,
// then validates the result.
func loadOptions(cmd *cobra.Command, root *RootOptions, f *optionFlags) (config.Options, error) {
	opts := config.Default()
	if root.Config != "" {
		loaded, err := config.Load(root.Config)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	opts, err := config.ApplyEnv(opts)
	if err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("store-file", func() { opts.StoreFile = f.storeFile })
	set("keep-db", func() { opts.RetainStore = f.keepDB })
	set("fasta", func() { opts.AssumeFasta = f.assumeFasta })
	set("delimited", func() { opts.AssumeDelimited = f.assumeDelimited })
	set("record-start", func() { opts.RecordStart = f.recordStart })
	set("accession-end", func() { opts.AccessionEnd = f.accessionEnd })
	set("delimiter", func() { opts.Delimiter = delimiterValue(f.delimiter) })
	set("columns", func() { opts.Columns = f.columns })
	set("skip-header", func() { opts.SkipHeader = f.skipHeader })
	set("strip-symbols", func() { opts.StripSymbols = f.stripSymbols })
	set("lowercase", func() { opts.Lowercase = f.lowercase })
	set("uppercase", func() { opts.Uppercase = f.uppercase })
	set("ignore-il", func() { opts.UnifyIL = f.ignoreIL })
	set("progress-interval", func() { opts.ProgressInterval = f.progressInterval })

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// delimiterValue accepts the spellings of a tab that survive a shell.
func delimiterValue(s string) string {
	switch s {
	case "tab", `\t`:
		return "\t"
	}
	return s
}
