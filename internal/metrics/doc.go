// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Poll cycle outcomes and durations
//   - Upstream fetch attempts and remaining request quota
//   - Events seen and malformed events skipped
//   - Records appended and failures per sink
//
// Collectors live on a private registry; Handler serves it.
package metrics
