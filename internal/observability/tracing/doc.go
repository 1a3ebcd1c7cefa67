// Package tracing wires OpenTelemetry into the service.
//
// InitProvider installs an SDK tracer provider and the W3C propagator.
// Spans are started with StartSpan and closed with End, which records errors:
//
//	ctx, span := tracing.StartSpan(ctx, "ingest.Ingest", attribute.String("date", d))
//	defer func() { tracing.End(span, err) }()
package tracing
