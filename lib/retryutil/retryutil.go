package retryutil

import (
	"context"
	"time"
)

type Options struct {
	// Attempts below 1 is treated as 1.
	Attempts int
	// Delay between attempts, no delay when zero.
	Delay time.Duration
}

// Do runs fn up to opts.Attempts times, returning the first success or the
// last error once attempts are exhausted. The delay between attempts is
// fixed; context cancellation aborts the wait.
func Do[T any](ctx context.Context, opts Options, fn func() (T, error)) (T, error) {
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var out T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, lastErr = fn()
		if lastErr == nil {
			return out, nil
		}
		if attempt < attempts && opts.Delay > 0 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return out, ctx.Err()
			}
		}
	}
	return out, lastErr
}
