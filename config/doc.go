// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the per-service resilience settings:
// failure threshold, reset timeout, rate-limit quota and window, retry
// attempts and base delay, per-call timeout, cache TTL and webhook secret.
package config
