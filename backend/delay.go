package backend

import (
	"context"
	"time"
)

// Delayer suspends the caller for simulated backend latency.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// DelayFunc adapts a function to the Delayer interface.
type DelayFunc func(ctx context.Context, d time.Duration) error

// Delay calls f(ctx, d).
func (f DelayFunc) Delay(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// Sleep waits for d on a timer. It returns ctx.Err() if ctx is done first,
// so a waiting session never blocks its host.
var Sleep Delayer = DelayFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
})

// NoDelay returns immediately. Intended for tests.
var NoDelay Delayer = DelayFunc(func(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
})
