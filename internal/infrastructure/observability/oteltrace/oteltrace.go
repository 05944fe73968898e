package oteltrace

import (
	"context"

	"github.com/Smilefounder/services-core/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "payment-settler"

type tracer struct{ t trace.Tracer }

// New returns a tracer from the globally installed provider. Without an SDK
// provider spans are non-recording but trace context still propagates.
func New(name string) observability.Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
