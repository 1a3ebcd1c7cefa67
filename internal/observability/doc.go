// Package observability groups the logging, metrics and tracing helpers of the
// extraction service.
//
// Subpackages:
//   - logging: slog construction and context propagation
//   - metrics: Prometheus job, source and content metrics
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
