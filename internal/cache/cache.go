package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/protcache/internal/config"
	"github.com/roach88/protcache/internal/lifecycle"
	"github.com/roach88/protcache/internal/normalize"
	"github.com/roach88/protcache/internal/notify"
	"github.com/roach88/protcache/internal/protein"
	"github.com/roach88/protcache/internal/reader"
	"github.com/roach88/protcache/internal/store"
)

// Result describes one ingest run.
type Result struct {
	// RunID identifies the run (UUIDv7) and is stored in the cache metadata.
	RunID string `json:"run_id"`

	// Records is the number of proteins inserted. On failure it is the number
	// inserted before the run was abandoned; none of them are kept.
	Records int `json:"records"`

	// LinesRead is the number of input lines consumed.
	LinesRead int `json:"lines_read"`

	// Skipped counts delimited lines with too few fields.
	Skipped int `json:"skipped"`

	Format    reader.Format `json:"format"`
	StorePath string        `json:"store_path"`
	Duration  time.Duration `json:"duration"`
}

// Cache ingests one protein file at a time into a disposable SQLite store
// and serves the cached records afterwards.
//
// A Cache is not safe for concurrent use; ingestion and reads are expected
// to run on one goroutine.
type Cache struct {
	opts     config.Options
	logger   *slog.Logger
	resolver *lifecycle.Resolver
	manager  *lifecycle.Manager

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	metrics        *ingestMetrics

	newReader func(reader.Format, reader.Options) reader.Reader

	count int
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for status, warning, error and debug messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithResolver sets the store path resolver.
func WithResolver(r *lifecycle.Resolver) Option {
	return func(c *Cache) { c.resolver = r }
}

// WithManager replaces the lifecycle manager. The manager's own
// configuration wins over the store options.
func WithManager(m *lifecycle.Manager) Option {
	return func(c *Cache) { c.manager = m }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Cache) { c.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Cache) { c.meterProvider = mp }
}

// New validates opts and returns an empty cache.
func New(opts config.Options, options ...Option) (*Cache, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{opts: opts, newReader: reader.New}
	for _, o := range options {
		o(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.manager == nil {
		c.manager = lifecycle.NewManager(lifecycle.ManagerConfig{
			FileName: opts.StoreFile,
			Retain:   opts.RetainStore,
			Resolver: c.resolver,
			Logger:   c.logger,
		})
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName)
	m, err := newIngestMetrics(c.meterProvider.Meter(instrumentationName))
	if err != nil {
		return nil, fmt.Errorf("create ingest metrics: %w", err)
	}
	c.metrics = m
	return c, nil
}

// Options returns the validated options.
func (c *Cache) Options() config.Options { return c.opts }

// NewReporter returns a progress reporter using the configured progress
// interval and the cache's logger.
func (c *Cache) NewReporter(listeners ...notify.Listener) *notify.Reporter {
	rep := notify.NewReporter(listeners...).WithLogger(c.logger)
	// The interval was validated with the options.
	if withInterval, err := rep.WithInterval(c.opts.ProgressInterval); err == nil {
		rep = withInterval
	}
	return rep
}

// Ingest reads path into a fresh store. Any store left by a previous run is
// deleted first. On failure the partial store is discarded, Count drops to
// 0, and the returned error is an *IngestError.
//
// rep may be nil.
func (c *Cache) Ingest(ctx context.Context, path string, rep *notify.Reporter) (Result, error) {
	start := time.Now()
	if rep == nil {
		rep = c.NewReporter()
	}

	ctx, span := startIngestSpan(ctx, c.tracer, path)
	res, err := c.ingest(ctx, path, rep)
	res.Duration = time.Since(start)

	if err != nil {
		c.logger.Error("ingest failed", "path", path, "kind", KindOf(err), "records", res.Records, "error", err)
	}
	c.metrics.record(ctx, res, err)
	endIngestSpan(span, res, err)
	return res, err
}

func (c *Cache) ingest(ctx context.Context, path string, rep *notify.Reporter) (Result, error) {
	res := Result{RunID: uuid.Must(uuid.NewV7()).String()}

	if path == "" {
		return res, &IngestError{Kind: ErrKindEmptyPath, Message: "input file path is empty"}
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return res, &IngestError{Kind: ErrKindInputNotFound, Path: path, Message: "input file not found", Err: err}
	}
	if err != nil {
		return res, &IngestError{Kind: ErrKindInputOpen, Path: path, Message: "unable to access input file", Err: err}
	}
	if info.IsDir() {
		return res, &IngestError{Kind: ErrKindInputOpen, Path: path, Message: "input path is a directory"}
	}

	c.discardPrevious()

	res.Format = c.opts.Format(path)
	rd := c.newReader(res.Format, c.opts.ReaderOptions())
	if err := rd.Open(path); err != nil {
		return res, &IngestError{Kind: ErrKindInputOpen, Path: path, Message: "unable to open input file", Err: err}
	}
	defer rd.Close()

	s, err := c.manager.Open()
	if err != nil {
		c.discard()
		return res, &IngestError{Kind: ErrKindStore, Path: path, Message: "unable to create store", Err: err}
	}
	res.StorePath = s.Path()

	bulk, err := s.BeginBulkInsert(ctx)
	if err != nil {
		c.discard()
		return res, &IngestError{Kind: ErrKindStore, Path: path, Message: "unable to start bulk insert", Err: err}
	}

	c.logger.Info("caching proteins", "path", path, "format", res.Format, "store", res.StorePath, "run_id", res.RunID)
	nopts := c.opts.NormalizeOptions()
	rep.Start()

	fail := func(kind ErrorKind, msg string, cause error) (Result, error) {
		res.Records = bulk.Rows()
		res.LinesRead = rd.LinesRead()
		res.Skipped = skipped(rd)
		if rbErr := bulk.Rollback(); rbErr != nil {
			c.logger.Debug("rollback failed", "error", rbErr)
		}
		c.discard()
		return res, &IngestError{Kind: kind, Path: path, Message: msg, Err: cause}
	}

	var id int64
	for rd.Next() {
		if err := ctx.Err(); err != nil {
			return fail(ErrKindCanceled, "ingest canceled", err)
		}

		entry := rd.Entry()
		rec := protein.Record{
			UniqueSequenceID: id,
			Name:             entry.Name,
			Description:      norm.NFC.String(entry.Description),
			Sequence:         normalize.Sequence(entry.Sequence, nopts),
		}
		if err := bulk.Insert(ctx, rec); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ErrKindCanceled, "ingest canceled", ctxErr)
			}
			return fail(ErrKindInsert, fmt.Sprintf("unable to insert protein %q", rec.Name), err)
		}
		id++
		rep.Cached(rd.PercentFileProcessed)
	}
	if err := rd.Err(); err != nil {
		return fail(ErrKindRead, fmt.Sprintf("error reading input after line %d", rd.LinesRead()), err)
	}
	if err := ctx.Err(); err != nil {
		return fail(ErrKindCanceled, "ingest canceled", err)
	}

	res.Records = bulk.Rows()
	res.LinesRead = rd.LinesRead()
	res.Skipped = skipped(rd)

	if err := c.writeMeta(ctx, bulk, path, res); err != nil {
		return fail(ErrKindCommit, "unable to record run metadata", err)
	}
	if err := bulk.Commit(ctx); err != nil {
		return fail(ErrKindCommit, "unable to commit proteins", err)
	}
	c.manager.MarkCommitted()
	c.count = res.Records

	if res.Skipped > 0 {
		c.logger.Warn("skipped lines with too few fields", "path", path, "skipped", res.Skipped)
	}
	rep.Complete()
	c.logger.Info(doneMessage(res.Records, res.LinesRead), "run_id", res.RunID)
	return res, nil
}

func (c *Cache) writeMeta(ctx context.Context, bulk *store.BulkInsert, path string, res Result) error {
	source := path
	if abs, err := filepath.Abs(path); err == nil {
		source = abs
	}
	meta := [][2]string{
		{store.MetaRunID, res.RunID},
		{store.MetaSourcePath, source},
		{store.MetaFormat, string(res.Format)},
		{store.MetaRecordCount, strconv.Itoa(res.Records)},
		{store.MetaCreatedAt, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, kv := range meta {
		if err := bulk.SetMeta(ctx, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// discardPrevious removes the store of an earlier run, retained or not.
func (c *Cache) discardPrevious() {
	if c.manager.State() == lifecycle.StateUnresolved {
		return
	}
	c.logger.Debug("discarding previous store", "path", c.manager.Path(), "state", c.manager.State())
	c.manager.Delete(true)
	c.manager.Reset()
	c.count = 0
}

// discard force-deletes the store of a failed run.
func (c *Cache) discard() {
	c.count = 0
	if !c.manager.Delete(true) {
		c.logger.Warn("partial store could not be removed", "path", c.manager.Path())
	}
}

func skipped(rd reader.Reader) int {
	if s, ok := rd.(interface{ Skipped() int }); ok {
		return s.Skipped()
	}
	return 0
}

// doneMessage renders the completion status with grouped digits.
func doneMessage(records, lines int) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("Done: Processed %d proteins (%d lines)", records, lines)
}

// Read opens a cursor over the cached proteins in r, ordered by ID.
// The caller must close it.
func (c *Cache) Read(ctx context.Context, r store.Range) (*store.Cursor, error) {
	s, err := c.committedStore()
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, r)
}

// All iterates the cached proteins in r. Stopping early releases the cursor.
func (c *Cache) All(ctx context.Context, r store.Range) iter.Seq2[protein.Record, error] {
	s, err := c.committedStore()
	if err != nil {
		return func(yield func(protein.Record, error) bool) {
			yield(protein.Record{}, err)
		}
	}
	return s.Records(ctx, r)
}

// Count returns the number of proteins cached by the last successful
// ingest, or 0.
func (c *Cache) Count() int { return c.count }

// Meta returns the run metadata stored with the proteins.
func (c *Cache) Meta(ctx context.Context) (map[string]string, error) {
	s, err := c.committedStore()
	if err != nil {
		return nil, err
	}
	return s.Meta(ctx)
}

// UpdateCoverage writes the coverage computed for protein id.
func (c *Cache) UpdateCoverage(ctx context.Context, id int64, pct float64) error {
	s, err := c.committedStore()
	if err != nil {
		return err
	}
	return s.UpdateCoverage(ctx, id, pct)
}

// StorePath returns the current store file path, or "".
func (c *Cache) StorePath() string { return c.manager.Path() }

// State returns the store file's lifecycle state.
func (c *Cache) State() lifecycle.State { return c.manager.State() }

// Teardown closes the store and deletes its file unless it is retained.
// It reports whether the file is gone.
func (c *Cache) Teardown() bool {
	c.count = 0
	return c.manager.Teardown()
}

func (c *Cache) committedStore() (*store.Store, error) {
	s := c.manager.Store()
	if s == nil || c.manager.State() != lifecycle.StateCommitted {
		return nil, fmt.Errorf("read cache: %w", store.ErrNotCommitted)
	}
	return s, nil
}
