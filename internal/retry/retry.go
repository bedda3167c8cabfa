package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"
)

// Policy bounds one logical call: at most MaxAttempts attempts, with
// exponential backoff starting at BaseDelay between them.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// ExhaustedError wraps the last transient error after every attempt of a
// policy has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Transient reports false: an exhausted call is a final outcome, not a
// candidate for another retry loop.
func (e *ExhaustedError) Transient() bool {
	return false
}

type transienter interface {
	Transient() bool
}

type transientError struct {
	err error
}

func (e *transientError) Error() string   { return e.err.Error() }
func (e *transientError) Unwrap() error   { return e.err }
func (e *transientError) Transient() bool { return true }

// MarkTransient wraps err so Do will retry it. Used by transports for
// failures that carry no classification of their own, such as a
// connection reset.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err should be retried. Errors that
// implement Transient() decide for themselves; network timeouts and
// exceeded deadlines are transient; everything else is fatal and aborts
// the attempt loop immediately.
func IsTransient(err error) bool {
	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// Do runs op under the policy. Fatal errors are returned as-is on the
// attempt that produced them. Transient errors trigger a backoff of
// BaseDelay * 2^(attempt-1) plus jitter in [0, BaseDelay), then a retry,
// until MaxAttempts attempts have been made; the last transient error is
// then returned wrapped in *ExhaustedError.
//
// If ctx is cancelled during a backoff the loop stops immediately and
// returns the context error.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !IsTransient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(Backoff(policy.BaseDelay, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// Execute is Do for operations without a result value.
func Execute(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Backoff returns the delay before the next attempt after attempt
// failures: base * 2^(attempt-1) plus random jitter in [0, base).
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}

	delay := base << (attempt - 1)
	return delay + rand.N(base)
}
