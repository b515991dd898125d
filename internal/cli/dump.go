package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/protcache/internal/protein"
	"github.com/roach88/protcache/internal/store"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	flags optionFlags
	Start int64
	End   int64
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <protein-file>",
		Short: "Load a protein file and print the cached records",
		Long: `Load a protein file into the cache, then print the cached records in ID
order as tab-separated ID, name, description and sequence.

--start and --end select an inclusive ID range; either may be omitted.

Example:
  protcache dump proteins.fasta --strip-symbols=false
  protcache dump proteins.fasta --start 100 --end 199 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, args[0], cmd)
		},
	}

	addOptionFlags(cmd, &opts.flags)
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "first ID to print")
	cmd.Flags().Int64Var(&opts.End, "end", 0, "last ID to print")

	return cmd
}

func (o *DumpOptions) rangeFor(cmd *cobra.Command) (store.Range, error) {
	var r store.Range
	if cmd.Flags().Changed("start") {
		start := o.Start
		r.Start = &start
	}
	if cmd.Flags().Changed("end") {
		end := o.End
		r.End = &end
	}
	if r.Start != nil && r.End != nil && *r.End < *r.Start {
		return r, fmt.Errorf("--end %d is before --start %d", *r.End, *r.Start)
	}
	return r, nil
}

func runDump(opts *DumpOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	r, err := opts.rangeFor(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidOptions, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid range", err)
	}

	sess, err := openSession(cmd, opts.RootOptions, &opts.flags, formatter)
	if err != nil {
		return err
	}
	defer sess.close()

	res, err := sess.ingest(path)
	if err != nil {
		return err
	}

	var records []protein.Record
	for rec, err := range sess.cache.All(sess.ctx, r) {
		if err != nil {
			_ = formatter.Error(ErrCodeRead, err.Error(), nil)
			return WrapExitError(ExitFailure, "failed to read cache", err)
		}
		records = append(records, rec)
	}

	return formatter.Success(res.RunID, records, func(w io.Writer) error {
		for _, rec := range records {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				rec.UniqueSequenceID, rec.Name, rec.Description, rec.Sequence); err != nil {
				return err
			}
		}
		return nil
	})
}
