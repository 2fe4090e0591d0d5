package presenter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souvik03-136/craftwatch/backend/internal/models"
)

type countingSource struct {
	probes atomic.Int32
}

func (s *countingSource) Probe(context.Context) models.ServerStatus {
	n := int(s.probes.Add(1))
	return models.OnlineStatus("h:1", "Welcome", n, 20, 1)
}

// event is a status (remaining == 0) or a countdown step.
type event struct {
	status    *models.ServerStatus
	remaining int
}

type chanSink struct {
	events chan event
	fail   error
}

func newChanSink() *chanSink {
	return &chanSink{events: make(chan event, 128)}
}

func (s *chanSink) Status(st models.ServerStatus) error {
	if s.fail != nil {
		return s.fail
	}
	s.events <- event{status: &st}
	return nil
}

func (s *chanSink) Countdown(remaining int) error {
	s.events <- event{remaining: remaining}
	return nil
}

func (s *chanSink) next(t *testing.T) event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loop event")
		return event{}
	}
}

func (s *chanSink) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-s.events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func runLoop(t *testing.T, l *Loop) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	t.Cleanup(cancelFn)
	return cancelFn, errc
}

func TestLoopCountsDownThirtyStepsThenReprobes(t *testing.T) {
	src := &countingSource{}
	sink := newChanSink()
	ticks := make(chan time.Time)
	l := NewLoop(src, sink, WithTicks(ticks))

	cancel, done := runLoop(t, l)

	first := sink.next(t)
	require.NotNil(t, first.status)
	assert.Equal(t, 1, *first.status.PlayersOnline)

	for want := 30; want >= 1; want-- {
		ev := sink.next(t)
		require.Nil(t, ev.status, "status before the countdown finished at step %d", want)
		assert.Equal(t, want, ev.remaining)
		ticks <- time.Now()
	}

	second := sink.next(t)
	require.NotNil(t, second.status)
	assert.Equal(t, 2, *second.status.PlayersOnline)
	assert.Equal(t, int32(2), src.probes.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestLoopRefreshCutsCountdownShort(t *testing.T) {
	src := &countingSource{}
	sink := newChanSink()
	ticks := make(chan time.Time)
	l := NewLoop(src, sink, WithTicks(ticks))

	runLoop(t, l)

	require.NotNil(t, sink.next(t).status)
	assert.Equal(t, 30, sink.next(t).remaining)
	ticks <- time.Now()
	assert.Equal(t, 29, sink.next(t).remaining)

	l.Refresh()

	ev := sink.next(t)
	require.NotNil(t, ev.status)
	assert.Equal(t, 2, *ev.status.PlayersOnline)
	assert.Equal(t, 30, sink.next(t).remaining)
}

func TestLoopRefreshCoalesces(t *testing.T) {
	src := &countingSource{}
	sink := newChanSink()
	l := NewLoop(src, sink, WithTicks(make(chan time.Time)))

	l.Refresh()
	l.Refresh()
	l.Refresh()

	runLoop(t, l)

	require.NotNil(t, sink.next(t).status)
	assert.Equal(t, 30, sink.next(t).remaining)
	require.NotNil(t, sink.next(t).status)
	assert.Equal(t, 30, sink.next(t).remaining)
	sink.quiet(t)
	assert.Equal(t, int32(2), src.probes.Load())
}

func TestLoopWithSteps(t *testing.T) {
	sink := newChanSink()
	ticks := make(chan time.Time)
	l := NewLoop(&countingSource{}, sink, WithTicks(ticks), WithSteps(2))

	runLoop(t, l)

	require.NotNil(t, sink.next(t).status)
	assert.Equal(t, 2, sink.next(t).remaining)
	ticks <- time.Now()
	assert.Equal(t, 1, sink.next(t).remaining)
	ticks <- time.Now()
	require.NotNil(t, sink.next(t).status)
}

func TestLoopStopsOnSinkError(t *testing.T) {
	sink := newChanSink()
	sink.fail = errors.New("socket closed")
	l := NewLoop(&countingSource{}, sink, WithTicks(make(chan time.Time)))

	_, done := runLoop(t, l)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, sink.fail)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	sink := newChanSink()
	l := NewLoop(&countingSource{}, sink, WithTicks(make(chan time.Time)))

	cancel, done := runLoop(t, l)
	require.NotNil(t, sink.next(t).status)
	sink.next(t)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoopDefaultTicker(t *testing.T) {
	sink := newChanSink()
	l := NewLoop(&countingSource{}, sink, WithSteps(1))

	runLoop(t, l)

	require.NotNil(t, sink.next(t).status)
	assert.Equal(t, 1, sink.next(t).remaining)
	// One real second later the next poll shows up.
	require.NotNil(t, sink.next(t).status)
}

func TestLoopInitialStatusSkipsFirstProbe(t *testing.T) {
	src := &countingSource{}
	sink := newChanSink()
	ticks := make(chan time.Time)
	seed := models.OnlineStatus("h:1", "Seeded", 7, 20, 1)
	l := NewLoop(src, sink, WithTicks(ticks), WithSteps(2), WithInitialStatus(seed))

	runLoop(t, l)

	first := sink.next(t)
	require.NotNil(t, first.status)
	assert.Equal(t, "Seeded", *first.status.MOTD)
	assert.Equal(t, 2, sink.next(t).remaining)
	assert.Zero(t, src.probes.Load(), "seeded cycle goes straight to the countdown")

	ticks <- time.Now()
	assert.Equal(t, 1, sink.next(t).remaining)
	ticks <- time.Now()

	second := sink.next(t)
	require.NotNil(t, second.status)
	assert.Equal(t, "Welcome", *second.status.MOTD)
	assert.Equal(t, int32(1), src.probes.Load())
}
