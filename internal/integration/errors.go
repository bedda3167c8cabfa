package integration

import (
	"errors"
	"fmt"
	"time"

	"github.com/KingInYellow18/medianest-sub018/internal/circuitbreaker"
	"github.com/KingInYellow18/medianest-sub018/internal/retry"
)

// RateLimitError is returned when the caller's quota for a service is
// spent. ResetAt tells the caller when the window reopens; no network
// call was attempted and no circuit-breaker slot was consumed.
type RateLimitError struct {
	Service string
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for service %q, resets at %s",
		e.Service, e.ResetAt.Format(time.RFC3339))
}

// UpstreamError is a non-2xx response from an external service. 5xx
// responses are transient and retried; 4xx responses are fatal and
// surface immediately.
type UpstreamError struct {
	Service    string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("service %q returned status %d", e.Service, e.StatusCode)
}

func (e *UpstreamError) Transient() bool {
	return e.StatusCode >= 500
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsCircuitOpen reports whether err is a circuit-breaker rejection.
func IsCircuitOpen(err error) bool {
	var open *circuitbreaker.OpenError
	return errors.As(err, &open)
}

// IsRetriesExhausted reports whether err is a transient failure that
// outlived every retry attempt.
func IsRetriesExhausted(err error) bool {
	var ex *retry.ExhaustedError
	return errors.As(err, &ex)
}
