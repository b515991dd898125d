package cache

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/roach88/protcache/internal/cache"

// Span and metric names.
const (
	spanIngest = "protcache.ingest"

	metricRuns     = "protcache.ingest.runs"
	metricErrors   = "protcache.ingest.errors"
	metricRecords  = "protcache.ingest.records"
	metricDuration = "protcache.ingest.duration_ms"
)

type ingestMetrics struct {
	runs     metric.Int64Counter
	errors   metric.Int64Counter
	records  metric.Int64Counter
	duration metric.Float64Histogram
}

func newIngestMetrics(meter metric.Meter) (*ingestMetrics, error) {
	runs, err := meter.Int64Counter(
		metricRuns,
		metric.WithDescription("Number of ingest runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(
		metricErrors,
		metric.WithDescription("Number of failed ingest runs"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	records, err := meter.Int64Counter(
		metricRecords,
		metric.WithDescription("Proteins committed to the cache"),
		metric.WithUnit("{protein}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		metricDuration,
		metric.WithDescription("Ingest duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &ingestMetrics{runs: runs, errors: errs, records: records, duration: duration}, nil
}

func (m *ingestMetrics) record(ctx context.Context, res Result, err error) {
	opt := metric.WithAttributes(attribute.String("protcache.format", string(res.Format)))

	m.runs.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("protcache.format", string(res.Format)),
			attribute.String("protcache.error_kind", string(KindOf(err))),
		))
	} else {
		m.records.Add(ctx, int64(res.Records), opt)
	}
	m.duration.Record(ctx, float64(res.Duration.Milliseconds()), opt)
}

func startIngestSpan(ctx context.Context, tracer trace.Tracer, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanIngest,
		trace.WithAttributes(attribute.String("protcache.input", path)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func endIngestSpan(span trace.Span, res Result, err error) {
	span.SetAttributes(
		attribute.String("protcache.run_id", res.RunID),
		attribute.String("protcache.format", string(res.Format)),
		attribute.Int("protcache.records", res.Records),
		attribute.Int("protcache.lines", res.LinesRead),
		attribute.Int64("protcache.duration_ms", res.Duration.Milliseconds()),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
