package utils

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
)

// RetryPolicy bounds repeated attempts at a flaky call: exponentially
// increasing delay with random jitter between attempts.
type RetryPolicy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		MinDelay:    time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Retry runs fn until it succeeds, the attempts are exhausted, or the
// context is cancelled. Exhaustion returns the last error wrapped with the
// attempt count; the caller decides whether that is fatal.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	b := &backoff.Backoff{
		Min:    policy.MinDelay,
		Max:    policy.MaxDelay,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return errors.Wrapf(lastErr, "giving up after %d attempts", policy.MaxAttempts)
}
