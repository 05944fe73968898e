package logctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smilefounder/services-core/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}

func TestFromOrFallsBackWhenContextHasNoLogger(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}

	assert.Same(t, fallback, FromOr(context.Background(), fallback))
	assert.NotNil(t, FromOr(context.Background(), nil))
}

func TestEnrichStacksFields(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}

	ctx := Enrich(context.Background(), base, observability.F("invocation_id", "inv-1"))
	ctx = Enrich(ctx, nil, observability.F("payment_id", "pay-1"))

	got, ok := From(ctx).(*recordingLogger)
	require.True(t, ok)
	assert.Equal(t, []observability.Field{
		observability.F("invocation_id", "inv-1"),
		observability.F("payment_id", "pay-1"),
	}, got.fields)
}
