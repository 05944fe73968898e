// Package observability declares the vendor-neutral telemetry ports used by
// the application layer. Adapters live under infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the three signals a settlement run emits.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Flusher is implemented by providers that buffer telemetry until exit. A
// one-shot worker has no scrape window, so buffered signals must be flushed.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Flush flushes o when it buffers anything and is a no-op otherwise.
func Flush(ctx context.Context, o Observability) error {
	if f, ok := o.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Metrics resolves instruments by key; unknown keys yield no-op instruments.
type Metrics interface {
	Counter(key MetricKey) Counter
	Histogram(key MetricKey) Histogram
}

type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

// Label is a metric dimension. Values must stay low-cardinality.
type Label struct{ Key, Value string }

func L(key, value string) Label { return Label{Key: key, Value: value} }

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger emits snake_case event messages with structured fields.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}
