// Package metric provides Prometheus metrics for the Dayon client.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Prometheus registry, HTTP handler and textfile export
//   - collector.go: Custom collectors for state-valued metrics
//
// Metrics include:
//
//   - Gateway request counts and latency histograms
//   - Token store operation counters
//   - Session transitions and logout notification outcomes
//
// The mock backend serves them at /metrics; the CLI can write them to a
// textfile on exit.
package metric
