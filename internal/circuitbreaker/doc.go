// Package circuitbreaker implements per-service failure tracking for calls
// to external services.
//
// A circuit breaker prevents a failing downstream service from being
// hammered by the full request volume. It has three states:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Service failing, requests rejected without a network call
//   - HALF-OPEN: Testing recovery with a single probe
//
// Admission to the half-open slot uses an atomic compare-and-swap, so at
// most one probe is in flight at the reset boundary no matter how many
// callers arrive at once.
//
// Usage:
//
//	cb := circuitbreaker.New("media-server", 5, 30*time.Second, clock.System())
//	if err := cb.BeforeCall(); err != nil {
//	    return err // *circuitbreaker.OpenError
//	}
//	// Make request...
//	if err != nil {
//	    cb.OnFailure()
//	} else {
//	    cb.OnSuccess()
//	}
package circuitbreaker
