// Package retry executes operations with bounded attempts and
// exponential backoff plus jitter.
//
// Only transient errors (network timeouts, 5xx-equivalent responses,
// anything wrapped with MarkTransient) are retried. Fatal errors, such
// as 4xx responses, an open circuit or an exceeded rate limit, abort the
// loop on the attempt that produced them. Jitter spreads retries of
// concurrent callers so they do not land on the downstream service in
// synchronized waves.
//
// The package deliberately knows nothing about circuit breakers: the
// integration client records the final outcome exactly once per logical
// call, never once per attempt.
package retry
