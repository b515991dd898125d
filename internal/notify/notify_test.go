package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events   []string
	cached   []int
	progress []int
}

func (r *recorder) listener() ListenerFuncs {
	return ListenerFuncs{
		OnStart:  func() { r.events = append(r.events, "start") },
		OnCached: func(n int) { r.cached = append(r.cached, n) },
		OnProgress: func(n int, pct float64) {
			r.progress = append(r.progress, n)
			r.events = append(r.events, "progress")
		},
		OnComplete: func() { r.events = append(r.events, "complete") },
	}
}

func TestReporter_Sequence(t *testing.T) {
	rec := &recorder{}
	rep := NewReporter(rec.listener())

	rep.Start()
	for i := 0; i < 250; i++ {
		rep.Cached(func() float64 { return 50 })
	}
	rep.Complete()

	assert.Equal(t, []string{"start", "progress", "progress", "complete"}, rec.events)
	assert.Equal(t, []int{100, 200}, rec.progress)
	require.Len(t, rec.cached, 250)
	assert.Equal(t, 1, rec.cached[0])
	assert.Equal(t, 250, rec.cached[249])
	assert.Equal(t, 250, rep.Count())
}

func TestReporter_Interval(t *testing.T) {
	rec := &recorder{}
	rep, err := NewReporter(rec.listener()).WithInterval(2)
	require.NoError(t, err)

	rep.Start()
	for i := 0; i < 5; i++ {
		rep.Cached(nil)
	}
	assert.Equal(t, []int{2, 4}, rec.progress)

	_, err = NewReporter().WithInterval(0)
	require.Error(t, err)
}

func TestReporter_StartResetsCount(t *testing.T) {
	rep := NewReporter()
	rep.Start()
	rep.Cached(nil)
	rep.Cached(nil)
	rep.Start()
	assert.Equal(t, 0, rep.Count())
}

func TestReporter_PanickingListenerIsContained(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rec := &recorder{}
	bad := ListenerFuncs{OnCached: func(int) { panic("boom") }}
	rep := NewReporter(bad, rec.listener()).WithLogger(logger)

	rep.Start()
	rep.Cached(nil)
	rep.Cached(nil)
	rep.Complete()

	assert.Equal(t, []int{1, 2}, rec.cached, "later listeners still notified")
	assert.Equal(t, 2, rep.ListenerFailures())
	assert.Contains(t, buf.String(), "listener failed")
	assert.Contains(t, buf.String(), "boom")
}

func TestListenerFuncs_NilSafe(t *testing.T) {
	var l Listener = ListenerFuncs{}
	assert.NotPanics(t, func() {
		l.CachingStarted()
		l.ProteinCached(1)
		l.ProteinCachedWithProgress(1, 1)
		l.CachingComplete()
	})
}
