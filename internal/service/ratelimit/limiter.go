package ratelimit

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum spacing between outgoing provider requests.
// Every request reserves the next free slot under the limiter's internal
// lock and sleeps outside it, so concurrent callers queue their slots
// immediately instead of serializing behind one sleeper. With burst 1 the
// shared next-allowed timestamp only ever moves forward.
type Limiter struct {
	lim *rate.Limiter
}

// New creates a limiter with the given minimum interval between requests
// (100ms = a 10 requests/second ceiling).
func New(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		minInterval = 100 * time.Millisecond
	}
	return &Limiter{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// ReserveSlot reserves the next request slot and returns how long the caller
// must wait before dispatching. The reservation is never cancelled; the slot
// is consumed even if the caller gives up, which keeps the ceiling honest.
func (l *Limiter) ReserveSlot() time.Duration {
	return l.lim.Reserve().Delay()
}

// Wait reserves a slot and sleeps until it is due, honoring ctx cancellation.
// Returns the time actually waited.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	wait := l.ReserveSlot()
	if wait <= 0 {
		return 0, ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return wait, ctx.Err()
	case <-timer.C:
		return wait, nil
	}
}

// Backoff computes retry delays for provider rate-limit rejections:
// exponential doubling from Base, capped at Max, with up to 20% jitter so
// concurrent retries do not stampede.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before retry number attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	max := b.Max
	if max <= 0 {
		max = 30 * time.Second
	}

	d := base
	for i := 0; i < attempt && d < max; i++ {
		d *= 2
	}
	if d > max {
		d = max
	}

	jitter := time.Duration(rand.Int63n(int64(d)/5 + 1))
	return d + jitter
}

// Sleep blocks for the attempt's delay or until ctx is done.
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
