// Package health aggregates per-service call outcomes into rolling
// health records.
//
// Each service keeps a bounded window of recent {timestamp, success,
// latency} samples. Derived metrics:
//
//   - Uptime ratio: successes / total within the window
//   - Average latency in milliseconds
//   - Trend: the newer half of the window compared against the older
//     half; a shift larger than the configured delta flips the trend to
//     improving or degrading, otherwise it is stable
//   - Status: up, degraded or down from uptime ratio thresholds
//
// Storage is partitioned per service with its own lock, so recording an
// outcome for one service never contends with another.
package health
