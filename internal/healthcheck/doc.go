// Package healthcheck implements periodic uptime probing of external
// services. Each probe runs in its own goroutine, hits the service's
// status URL on an interval and feeds the outcome into the health
// monitor alongside call-derived samples.
package healthcheck
