// Package notify reports caching progress to interested listeners.
//
// A Reporter is created per ingest run and carries its own counters. Text
// messages (status, warnings, errors, debug traces) are not part of this
// package: they are slog records emitted on the logger the caller supplies.
package notify

import (
	"fmt"
	"log/slog"
)

// DefaultProgressInterval is how many cached proteins separate two progress
// notifications.
const DefaultProgressInterval = 100

// Listener receives caching notifications. Calls are synchronous and happen
// on the ingesting goroutine.
type Listener interface {
	CachingStarted()
	ProteinCached(count int)
	ProteinCachedWithProgress(count int, percentFileProcessed float64)
	CachingComplete()
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnStart    func()
	OnCached   func(count int)
	OnProgress func(count int, percentFileProcessed float64)
	OnComplete func()
}

func (f ListenerFuncs) CachingStarted() {
	if f.OnStart != nil {
		f.OnStart()
	}
}

func (f ListenerFuncs) ProteinCached(count int) {
	if f.OnCached != nil {
		f.OnCached(count)
	}
}

func (f ListenerFuncs) ProteinCachedWithProgress(count int, pct float64) {
	if f.OnProgress != nil {
		f.OnProgress(count, pct)
	}
}

func (f ListenerFuncs) CachingComplete() {
	if f.OnComplete != nil {
		f.OnComplete()
	}
}

// Reporter fans notifications out to listeners and keeps the per-run count.
// A listener that panics is logged at error level and does not stop the
// ingest loop.
type Reporter struct {
	listeners []Listener
	interval  int
	logger    *slog.Logger

	count    int
	failures int
}

// NewReporter returns a reporter with the default progress interval.
func NewReporter(listeners ...Listener) *Reporter {
	return &Reporter{listeners: listeners, interval: DefaultProgressInterval}
}

// WithInterval sets the progress interval; values below 1 are rejected.
func (r *Reporter) WithInterval(n int) (*Reporter, error) {
	if n < 1 {
		return nil, fmt.Errorf("progress interval must be positive, got %d", n)
	}
	r.interval = n
	return r, nil
}

// WithLogger sets the logger used for listener failures.
func (r *Reporter) WithLogger(logger *slog.Logger) *Reporter {
	r.logger = logger
	return r
}

// Subscribe adds a listener.
func (r *Reporter) Subscribe(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Count returns the number of proteins reported so far.
func (r *Reporter) Count() int { return r.count }

// ListenerFailures returns how many listener calls panicked.
func (r *Reporter) ListenerFailures() int { return r.failures }

// Start resets the count and fires caching-start.
func (r *Reporter) Start() {
	r.count = 0
	r.each("caching start", func(l Listener) { l.CachingStarted() })
}

// Cached records one more cached protein. Every interval-th protein also
// fires a progress notification with percent().
func (r *Reporter) Cached(percent func() float64) {
	r.count++
	count := r.count
	r.each("protein cached", func(l Listener) { l.ProteinCached(count) })

	if r.interval > 0 && count%r.interval == 0 {
		pct := 0.0
		if percent != nil {
			pct = percent()
		}
		r.each("caching progress", func(l Listener) { l.ProteinCachedWithProgress(count, pct) })
	}
}

// Complete fires caching-complete.
func (r *Reporter) Complete() {
	r.each("caching complete", func(l Listener) { l.CachingComplete() })
}

func (r *Reporter) each(event string, call func(Listener)) {
	for _, l := range r.listeners {
		r.safeCall(event, l, call)
	}
}

func (r *Reporter) safeCall(event string, l Listener, call func(Listener)) {
	defer func() {
		if rec := recover(); rec != nil {
			r.failures++
			r.log().Error("listener failed", "event", event, "panic", fmt.Sprint(rec))
		}
	}()
	call(l)
}

func (r *Reporter) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
