package adapter

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy bounds how often a failed discovery is attempted again.
type RetryPolicy struct {
	// Delays holds the wait before each retry; len(Delays) is the retry count.
	Delays []time.Duration
}

// ExponentialPolicy returns retries attempts waiting base, 2*base, 4*base...
func ExponentialPolicy(retries int, base time.Duration) RetryPolicy {
	if retries <= 0 {
		return RetryPolicy{}
	}
	delays := make([]time.Duration, retries)
	d := base
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return RetryPolicy{Delays: delays}
}

// AttemptFunc performs one discovery attempt.
type AttemptFunc[T any] func(ctx context.Context, attempt int) (T, error)

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy is exhausted. It reports the number of attempts made. Only *Error
// values with Retryable()==true are retried; a cancelled ctx stops immediately.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn AttemptFunc[T]) (T, int, error) {
	var zero T
	maxAttempts := len(policy.Delays) + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := fn(ctx, attempt)
		if err == nil {
			return value, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, attempt, err
		}
		var typed *Error
		if !errors.As(err, &typed) || !typed.Retryable() {
			return zero, attempt, err
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(policy.Delays[attempt-1])
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempt, err
		case <-timer.C:
		}
	}
	return zero, maxAttempts, lastErr
}
