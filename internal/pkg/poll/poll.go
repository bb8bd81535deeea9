/*
Package poll implements a strictly sequential fixed-cadence fetch loop.

A Loop produces a lazy, infinite sequence of fetch results, one per tick. A
tick's result is always delivered before the next fetch starts, so a slow
response can never land after a newer one and overwrite it. A failed tick is
delivered as an error tick and the loop carries on unconditionally: polling
itself is the retry policy, there is no backoff and no circuit breaker.

The cadence is explicit configuration. An interval of zero polls as fast as
the transport allows, bounded only by the optional rate limiter.
*/
package poll

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"parley/internal/pkg/logx"
)

// FetchFunc performs one canonical fetch. It must honor ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Tick is the result of one poll iteration. Exactly one of Value and Err is
// meaningful; Seq increases by one per tick, starting at 1.
type Tick[T any] struct {
	Seq   int64
	Value T
	Err   error
}

// Options configures a Loop's cadence.
type Options struct {
	// Interval is the pause between a delivered tick and the next fetch.
	// Zero means no pause; pacing is then left to Limiter.
	Interval time.Duration

	// Limiter, when non-nil, caps the fetch rate regardless of Interval.
	Limiter *rate.Limiter
}

// Loop is a single-consumer poll loop. Create one per watched resource and
// discard it together with its consumer; a torn-down loop is not restarted,
// the consumer creates a fresh one instead.
type Loop[T any] struct {
	fetch    FetchFunc[T]
	interval time.Duration
	limiter  *rate.Limiter
	refresh  chan struct{}
	ticks    chan Tick[T]
	logger   zerolog.Logger
}

// New constructs a Loop around fetch. Run must be called to start it.
func New[T any](fetch FetchFunc[T], opts Options) *Loop[T] {
	return &Loop[T]{
		fetch:    fetch,
		interval: opts.Interval,
		limiter:  opts.Limiter,
		refresh:  make(chan struct{}, 1),
		ticks:    make(chan Tick[T]),
		logger:   logx.Logger().With().Str("component", "poll").Logger(),
	}
}

// Ticks returns the tick channel. It is closed when Run returns.
func (l *Loop[T]) Ticks() <-chan Tick[T] {
	return l.ticks
}

// Refresh requests an immediate next tick, skipping the remaining interval
// wait. It never blocks; coalescing multiple pending requests into one tick
// is intended.
func (l *Loop[T]) Refresh() {
	select {
	case l.refresh <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is canceled, then closes the tick channel.
// Delivery is synchronous: the next fetch does not start until the consumer
// has received the previous tick. A fetch result that arrives after
// cancellation is discarded, not delivered.
func (l *Loop[T]) Run(ctx context.Context) {
	defer close(l.ticks)

	var seq int64

	for {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return
			}
		}

		value, err := l.fetch(ctx)

		if ctx.Err() != nil {
			return
		}

		seq++
		tick := Tick[T]{Seq: seq, Value: value, Err: err}
		if err != nil {
			l.logger.Debug().Int64("seq", seq).Err(err).Msg("poll tick failed; next tick will retry")
		}

		select {
		case l.ticks <- tick:
		case <-ctx.Done():
			return
		}

		if l.interval > 0 {
			timer := time.NewTimer(l.interval)
			select {
			case <-timer.C:
			case <-l.refresh:
				timer.Stop()
			case <-ctx.Done():
				timer.Stop()
				return
			}
		} else {
			// No interval: still honor a queued refresh so it does not
			// linger and fire after an unrelated later tick.
			select {
			case <-l.refresh:
			default:
			}
		}
	}
}
