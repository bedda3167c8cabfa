// Package integration composes the resilience primitives into a single
// "call this external service" operation.
//
// One Client exists per external service (media server, request broker,
// download helper, uptime monitor), each configured independently with
// its own failure threshold, reset timeout, rate-limit quota, retry
// policy and cache TTL. A call flows cache -> rate limiter -> circuit
// breaker -> retry around the network operation, and the final outcome
// is recorded into the breaker and health monitor exactly once.
//
// Usage:
//
//	client := integration.NewClient(settings, limiter, store, monitor, clock.System(), logger)
//	transport := integration.NewHTTPTransport("media-server", 10*time.Second)
//
//	body, err := client.Call(ctx, userID, transport.Get(url), integration.CallOptions{
//	    CacheKey: "media-server:library",
//	})
//	switch {
//	case integration.IsRateLimited(err):
//	    // 429 to the caller with the reset time
//	case integration.IsCircuitOpen(err):
//	    // 503, downstream considered unhealthy
//	}
package integration
