package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped by the error Do returns after the final attempt fails.
var ErrExhausted = errors.New("retries exhausted")

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int           // Total attempts including the first (min 1)
	Delay       time.Duration // Wait before the second attempt
	Multiplier  float64       // Delay growth per attempt; <= 1 means fixed delay
	MaxDelay    time.Duration // Upper bound on a single wait; 0 = unbounded
}

// DefaultPolicy returns three attempts five seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		Multiplier:  1,
	}
}

// NotifyFunc is called before each wait with the failed attempt number
// (1-based), its error and the wait that follows.
type NotifyFunc func(attempt int, err error, wait time.Duration)

// Backoff returns the wait that follows the given failed attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.Delay
	if p.Multiplier > 1 {
		for i := 1; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Multiplier)
			if p.MaxDelay > 0 && d >= p.MaxDelay {
				break
			}
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}

// Do runs op until it succeeds. See DoNotify.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	return p.DoNotify(ctx, op, nil)
}

// DoNotify runs op at most MaxAttempts times, waiting Backoff between
// consecutive attempts. There is no wait after the final attempt.
//
// A Permanent error stops immediately and is returned unwrapped. Context
// cancellation is observed at every wait and returns ctx.Err().
func (p Policy) DoNotify(ctx context.Context, op func(context.Context) error, notify NotifyFunc) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		if attempt == attempts {
			break
		}

		wait := p.Backoff(attempt)
		if notify != nil {
			notify(attempt, err, wait)
		}
		if err := Sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}
