package watcher

import (
	"context"
	"time"

	"github.com/modcycle/modcycle/pkg/logging"
)

// Debouncer batches rapid file system events so a save-all in an editor
// triggers one re-analysis instead of dozens
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run accumulates paths until the input goes quiet or maxWait elapses
func (d *Debouncer) run(ctx context.Context) {
	var (
		accumulated []string
		quiet       = time.NewTimer(d.quietPeriod)
		deadline    = time.NewTimer(d.maxWait)
	)
	quiet.Stop()
	deadline.Stop()

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if len(accumulated) == 0 {
			return
		}

		logging.Debug("flushing accumulated change events", "count", len(accumulated))
		d.output <- ChangeEvent{
			Paths:     dedupe(accumulated),
			Timestamp: time.Now(),
		}
		accumulated = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			if len(accumulated) == 0 {
				deadline.Reset(d.maxWait)
			}
			accumulated = append(accumulated, event.Paths...)
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

// dedupe removes repeated paths while keeping first-seen order
func dedupe(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
