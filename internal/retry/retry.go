// Package retry implements the bounded retry policy used for every call to an
// external capability: capped attempts, exponential backoff with jitter, and
// an optional server-supplied delay override.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	MaxAttempts int           // total attempts including the first; min 1
	BaseDelay   time.Duration // delay before the first retry
	MaxDelay    time.Duration // cap on any single delay
	Jitter      float64       // fraction of the delay randomized, e.g. 0.2
}

// Default is the schedule applied to embedding and inference calls:
// 4 attempts, 1s/2s/4s backoff with 20% jitter.
var Default = Policy{
	MaxAttempts: 4,
	BaseDelay:   time.Second,
	MaxDelay:    30 * time.Second,
	Jitter:      0.2,
}

// Retryable marks an error as transient. Errors not wrapped with Retryable
// stop the retry loop immediately.
type transientError struct {
	err   error
	after time.Duration // server-requested delay, 0 when none
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so Do will retry it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// TransientAfter wraps err as retryable with a server-requested minimum delay
// (e.g. from a Retry-After header).
func TransientAfter(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err, after: after}
}

// IsTransient reports whether err was marked retryable.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Do runs fn until it succeeds, returns a non-transient error, the attempt
// budget is exhausted, or ctx is cancelled. The last error is returned
// unwrapped from its transient marker.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, attempt, lastErr); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		lastErr = err
	}

	var te *transientError
	if errors.As(lastErr, &te) {
		return te.err
	}
	return lastErr
}

func (p Policy) sleep(ctx context.Context, attempt int, lastErr error) error {
	d := p.delay(attempt, lastErr)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// delay computes the wait before retry number attempt (1-based).
func (p Policy) delay(attempt int, lastErr error) time.Duration {
	var te *transientError
	if errors.As(lastErr, &te) && te.after > 0 {
		return te.after
	}

	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	d := base << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d += time.Duration((rand.Float64()*2 - 1) * spread)
		if d < 0 {
			d = 0
		}
	}
	return d
}
