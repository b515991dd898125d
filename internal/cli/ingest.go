package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/roach88/protcache/internal/cache"
	"github.com/roach88/protcache/internal/config"
	"github.com/roach88/protcache/internal/notify"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	flags optionFlags
}

// ingestSummary is the JSON payload of a successful ingest.
type ingestSummary struct {
	cache.Result
	Retained bool `json:"retained"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest <protein-file>",
		Short: "Load a protein file into the cache",
		Long: `Load a FASTA or delimited protein file into a fresh cache and report
how many proteins were cached.

The input format comes from --fasta or --delimited, or else from the file
extension (.fasta, .fsa and .faa are FASTA). Anything else is read as FASTA.

Example:
  protcache ingest proteins.fasta --ignore-il --uppercase
  protcache ingest proteins.tsv --delimited --columns name_sequence --skip-header
  protcache ingest proteins.fasta --keep-db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, args[0], cmd)
		},
	}

	addOptionFlags(cmd, &opts.flags)
	return cmd
}

func runIngest(opts *IngestOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	sess, err := openSession(cmd, opts.RootOptions, &opts.flags, formatter)
	if err != nil {
		return err
	}
	defer sess.close()

	res, err := sess.ingest(path)
	if err != nil {
		return err
	}

	summary := ingestSummary{Result: res, Retained: sess.opts.RetainStore}
	return formatter.Success(res.RunID, summary, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Cached %d proteins from %s (%s, %d lines)\n",
			res.Records, path, res.Format, res.LinesRead)
		if err == nil && res.Skipped > 0 {
			_, err = fmt.Fprintf(w, "Skipped %d lines with too few fields\n", res.Skipped)
		}
		if err == nil && summary.Retained {
			_, err = fmt.Fprintf(w, "Cache kept at %s\n", res.StorePath)
		}
		return err
	})
}

// session is one command's cache together with its logger, tracing and
// signal handling.
type session struct {
	cmd       *cobra.Command
	opts      config.Options
	formatter *OutputFormatter
	logger    *slog.Logger
	cache     *cache.Cache
	tp        *sdktrace.TracerProvider

	ctx    context.Context
	cancel context.CancelFunc
	sigs   chan os.Signal
}

func openSession(cmd *cobra.Command, root *RootOptions, flags *optionFlags, formatter *OutputFormatter) (*session, error) {
	logger := newLogger(cmd.ErrOrStderr(), root.Verbose)

	opts, err := loadOptions(cmd, root, flags)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidOptions, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid options", err)
	}

	cacheOpts := []cache.Option{cache.WithLogger(logger)}
	var tp *sdktrace.TracerProvider
	if root.Trace {
		tp, err = newTraceProvider(cmd.ErrOrStderr())
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to set up tracing", err)
		}
		cacheOpts = append(cacheOpts, cache.WithTracerProvider(tp))
	}

	c, err := cache.New(opts, cacheOpts...)
	if err != nil {
		_ = shutdownTraceProvider(tp)
		_ = formatter.Error(ErrCodeInvalidOptions, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid options", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			logger.Info("received signal, abandoning ingest", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return &session{
		cmd:       cmd,
		opts:      opts,
		formatter: formatter,
		logger:    logger,
		cache:     c,
		tp:        tp,
		ctx:       ctx,
		cancel:    cancel,
		sigs:      sigs,
	}, nil
}

// ingest runs the cache ingest with a progress listener that reports under
// --verbose, and maps failures to CLI errors.
func (s *session) ingest(path string) (cache.Result, error) {
	rep := s.cache.NewReporter(notify.ListenerFuncs{
		OnProgress: func(count int, pct float64) {
			s.formatter.VerboseLog("cached %d proteins (%.1f%% of file)", count, pct)
		},
	})

	res, err := s.cache.Ingest(s.ctx, path, rep)
	if err == nil {
		return res, nil
	}

	code := ErrCodeIngest
	if cache.IsInputError(err) {
		code = ErrCodeInput
	}
	_ = s.formatter.Error(code, err.Error(), map[string]any{
		"kind":    cache.KindOf(err),
		"path":    path,
		"records": res.Records,
	})
	return res, WrapExitError(ExitFailure, "ingest failed", err)
}

// close tears the cache down, stops signal handling and flushes traces.
func (s *session) close() {
	if s.cache.Teardown() {
		s.logger.Debug("cache file removed", "path", s.cache.StorePath())
	}
	signal.Stop(s.sigs)
	s.cancel()
	if err := shutdownTraceProvider(s.tp); err != nil {
		s.logger.Warn("failed to flush traces", "error", err)
	}
}
