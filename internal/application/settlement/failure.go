package settlement

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Smilefounder/services-core/internal/domain/gateway"
	"github.com/Smilefounder/services-core/internal/domain/payment"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

// handleRejection replaces the cached gateway data with the rejection's
// field errors and forces the payment into error.
func (uc *ProcessPaymentUseCase) handleRejection(ctx context.Context, snap *domain.Snapshot, rejected gateway.Rejected, result *ProcessPaymentResult) error {
	p := snap.Payment

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"HandleRejection",
		attribute.String("payment.id", p.ID),
		attribute.Int("gateway.error_count", len(rejected.Errors)),
	)
	defer span.End()

	raw, err := rejected.CachedData()
	if err != nil {
		return failStage("GATEWAY_DATA_ENCODE_FAILED", err)
	}

	logctx.FromOr(ctx, uc.log).Warn("gateway_rejected", observability.F("errors", string(raw)))

	if err := uc.repo.SaveGatewayError(ctx, p.ID, raw); err != nil {
		return failStage("REJECTION_SAVE_FAILED", wrapStoreError(err))
	}
	if err := uc.repo.Transition(ctx, domain.PaymentRef(p.ID), string(payment.StatusError), raw); err != nil {
		return failStage("PAYMENT_TRANSITION_FAILED", wrapStoreError(err))
	}
	result.PaymentStatus = string(payment.StatusError)
	return nil
}
