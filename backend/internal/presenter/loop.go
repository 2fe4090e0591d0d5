package presenter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/souvik03-136/craftwatch/backend/internal/config"
	"github.com/souvik03-136/craftwatch/backend/internal/models"
)

// Source produces one status record per call.
type Source interface {
	Probe(ctx context.Context) models.ServerStatus
}

// Sink receives what the loop wants shown.
type Sink interface {
	Status(s models.ServerStatus) error
	Countdown(remaining int) error
}

// Loop polls a Source and drives a Sink: one status, then a visible
// countdown of one step per tick, then the next poll. A Refresh cuts the
// countdown short.
type Loop struct {
	source  Source
	sink    Sink
	steps   int
	ticks   func() (<-chan time.Time, func())
	refresh chan struct{}
	logger  *zap.Logger
	initial *models.ServerStatus
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSteps sets how many countdown steps run between polls.
func WithSteps(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.steps = n
		}
	}
}

// WithTicks makes the loop count down on ch instead of a one second ticker.
func WithTicks(ch <-chan time.Time) LoopOption {
	return func(l *Loop) {
		l.ticks = func() (<-chan time.Time, func()) { return ch, func() {} }
	}
}

// WithInitialStatus makes the first cycle show s instead of probing, so a
// status that was just rendered elsewhere is followed by a countdown rather
// than a second probe.
func WithInitialStatus(s models.ServerStatus) LoopOption {
	return func(l *Loop) { l.initial = &s }
}

// WithLoopLogger sets the loop's logger.
func WithLoopLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop returns a Loop counting down the refresh interval in seconds.
func NewLoop(source Source, sink Sink, opts ...LoopOption) *Loop {
	l := &Loop{
		source:  source,
		sink:    sink,
		steps:   int(config.RefreshInterval / time.Second),
		refresh: make(chan struct{}, 1),
		logger:  zap.NewNop(),
		ticks: func() (<-chan time.Time, func()) {
			t := time.NewTicker(time.Second)
			return t.C, t.Stop
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh asks for an immediate poll. It never blocks; presses that arrive
// before the loop notices the first one are merged into it.
func (l *Loop) Refresh() {
	select {
	case l.refresh <- struct{}{}:
	default:
	}
}

// Run polls and counts down until ctx is done or the sink fails.
// Cancellation returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		var status models.ServerStatus
		if l.initial != nil {
			status, l.initial = *l.initial, nil
		} else {
			status = l.source.Probe(ctx)
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := l.sink.Status(status); err != nil {
			return fmt.Errorf("show status: %w", err)
		}

		done, err := l.countdown(ctx)
		if err != nil || done {
			return err
		}
	}
}

// countdown runs one countdown. done is true when ctx ended it.
func (l *Loop) countdown(ctx context.Context) (done bool, err error) {
	ticks, stop := l.ticks()
	defer stop()

	for remaining := l.steps; remaining > 0; remaining-- {
		if err := l.sink.Countdown(remaining); err != nil {
			return false, fmt.Errorf("show countdown: %w", err)
		}
		select {
		case <-ctx.Done():
			return true, nil
		case <-l.refresh:
			l.logger.Debug("🔁 Manual refresh", zap.Int("remaining", remaining))
			return false, nil
		case <-ticks:
		}
	}
	return false, nil
}
