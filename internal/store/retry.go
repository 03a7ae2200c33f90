package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retries of the initial connection ping. A
// Postgres server that is still starting refuses connections for a while.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetry is used by Open.
var DefaultRetry = RetryConfig{
	MaxAttempts: 4,
	InitialWait: 250 * time.Millisecond,
	MaxWait:     2 * time.Second,
	Multiplier:  2.0,
}

// retry calls fn until it succeeds, the attempts run out or ctx ends.
// Context errors are never retried.
func retry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	var lastErr error
	for attempt := range max(cfg.MaxAttempts, 1) {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Last attempt, don't sleep.
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.backoff(attempt)):
		}
	}
	return lastErr
}

// backoff computes the wait duration for the given attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	wait := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(attempt))
	if wait > float64(c.MaxWait) {
		wait = float64(c.MaxWait)
	}

	// Add ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
