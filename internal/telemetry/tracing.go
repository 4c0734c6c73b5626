package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies ddbrouter's spans in whatever exporter the
// embedding application has configured. ddbrouter only depends on the
// otel API and SDK types, not a concrete exporter: shipping spans
// somewhere is the embedding application's decision, not this library's.
const tracerName = "ddbrouter"

// Tracer returns the package-wide tracer, resolved lazily against
// whatever TracerProvider is registered globally (otel.SetTracerProvider)
// at call time. If the application never configures one, otel's no-op
// provider is used and spans are free.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan is a small convenience wrapper so call sites read like
// telemetry.StartSpan(ctx, "discovery.poll") rather than repeating
// Tracer().Start(ctx, name) everywhere.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
