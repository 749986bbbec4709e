package orchestrator

import (
	"context"
	"time"
)

const (
	// backoffBase is the delay unit doubled per retry.
	backoffBase = 1000 * time.Millisecond
	// backoffMax caps the computed delay.
	backoffMax = 30000 * time.Millisecond
)

// Backoff computes exponential retry delays with a fixed cap.
type Backoff struct {
	base time.Duration
	max  time.Duration
}

// NewBackoff creates a Backoff with the standard base and cap.
func NewBackoff() Backoff {
	return Backoff{base: backoffBase, max: backoffMax}
}

// Delay returns the suspension before the given retry: base doubled
// per retry, capped. Retry 1 waits 2s, retry 2 waits 4s, retry 3
// waits 8s, and retry 5 onward waits the 30s cap.
func (b Backoff) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	d := b.base
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= b.max {
			return b.max
		}
	}
	return d
}

// sleepFunc suspends for the given duration or until the context is
// canceled. Tests substitute an instant implementation.
type sleepFunc func(ctx context.Context, d time.Duration) error

// defaultSleep waits on a timer and honors context cancellation.
func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
