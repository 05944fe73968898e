package workerpresentation

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

// WithInvocation prepares the context of one run: the caller's trace (if a
// traceparent was handed over) and a logger carrying a fresh invocation_id,
// the payment id and the remote trace id. The invocation id is returned too.
func WithInvocation(ctx context.Context, base observability.Logger, inv Invocation) (context.Context, string) {
	if base == nil {
		base = observability.NopLogger()
	}
	if inv.TraceParent != "" {
		carrier := propagation.MapCarrier{"traceparent": inv.TraceParent}
		ctx = propagation.TraceContext{}.Extract(ctx, carrier)
	}
	invocationID := uuid.NewString()

	fields := make([]observability.Field, 0, 3)
	fields = append(fields, observability.F("invocation_id", invocationID))
	if inv.ID != "" {
		fields = append(fields, observability.F("payment_id", inv.ID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields, observability.F("parent_trace_id", sc.TraceID().String()))
	}
	return logctx.With(ctx, base.With(fields...)), invocationID
}
