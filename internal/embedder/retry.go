package embedder

import (
	"context"
	"math/rand"
	"time"
)

// retry runs fn up to attempts times, sleeping between failures with
// exponential backoff. The sleep is jittered over [0, delay] so concurrent
// callers don't retry in lockstep. Context cancellation stops retrying
// immediately; otherwise the last error is returned when every attempt
// fails.
func retry[T any](ctx context.Context, attempts int, base, maxDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	delay := base
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(time.Duration(rand.Int63n(int64(delay) + 1))):
			}
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
