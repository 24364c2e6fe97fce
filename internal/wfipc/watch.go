package wfipc

import (
	"context"
	"errors"
	"iter"
	"time"

	"golang.org/x/time/rate"
)

// ErrStopWatch may be returned by a Watcher callback to end the loop cleanly.
var ErrStopWatch = errors.New("stop watching")

// Watcher polls the compositor for window-rule events. There is no push
// channel: each event is one blocking watch round trip, repeated.
type Watcher struct {
	// Limit stops the loop after this many events. Zero means unbounded.
	Limit int
	// Interval is the minimum spacing between polls. Zero polls back to back.
	Interval time.Duration
	// Limiter, when set, paces polls instead of Interval. Sharing one limiter
	// between watchers keeps the pace across reconnects.
	Limiter *rate.Limiter
}

// Run calls fn for each delivered event until ctx ends, Limit is reached, fn
// returns an error, or a round trip fails. A clean stop returns nil.
func (w Watcher) Run(ctx context.Context, r Requester, fn func(Event) error) error {
	for ev, err := range w.Events(ctx, r) {
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			if errors.Is(err, ErrStopWatch) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Events yields one event per watch round trip. A failed round trip is
// yielded once as an error and ends the sequence; cancellation of ctx ends
// it silently.
func (w Watcher) Events(ctx context.Context, r Requester) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		limiter := w.limiter()
		for delivered := 0; w.Limit <= 0 || delivered < w.Limit; delivered++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			ev, err := NextEvent(ctx, r)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func (w Watcher) limiter() *rate.Limiter {
	if w.Limiter != nil {
		return w.Limiter
	}
	if w.Interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(w.Interval), 1)
}
