package settlement

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Smilefounder/services-core/internal/domain/gateway"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

// subscriptionTarget decides where a linked subscription goes after the
// payment moved to txStatus. A refusal only deactivates subscriptions that
// already left "started"; a first failed charge keeps them started.
func subscriptionTarget(txStatus gateway.TransactionStatus, current subscription.Status) (subscription.Status, bool) {
	switch {
	case txStatus == gateway.TransactionPaid:
		return subscription.StatusActive, true
	case txStatus == gateway.TransactionRefused && current != subscription.StatusStarted:
		return subscription.StatusInactive, true
	default:
		return "", false
	}
}

// transition moves the payment to the transaction status and then applies
// the subscription rule. Validity is enforced by the store.
func (uc *ProcessPaymentUseCase) transition(
	ctx context.Context,
	snap *domain.Snapshot,
	status gateway.TransactionStatus,
	evidence json.RawMessage,
	result *ProcessPaymentResult,
) error {
	p := snap.Payment
	logger := logctx.FromOr(ctx, uc.log)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Transition",
		attribute.String("payment.id", p.ID),
		attribute.String("payment.target_status", string(status)),
	)
	defer span.End()

	if err := uc.repo.Transition(ctx, domain.PaymentRef(p.ID), string(status), evidence); err != nil {
		return failStage("PAYMENT_TRANSITION_FAILED", wrapStoreError(err))
	}
	result.PaymentStatus = string(status)
	logger.Info("payment_transitioned", observability.F("to", string(status)))

	if !p.HasSubscription() {
		return nil
	}

	var current subscription.Status
	if snap.Subscription != nil {
		current = snap.Subscription.Status
	}
	target, ok := subscriptionTarget(status, current)
	if !ok {
		logger.Info("subscription_unchanged",
			observability.F("subscription_id", p.SubscriptionRef()),
			observability.F("subscription_status", string(current)),
		)
		return nil
	}

	span.SetAttributes(attribute.String("subscription.target_status", string(target)))
	if err := uc.repo.Transition(ctx, domain.SubscriptionRef(p.SubscriptionRef()), string(target), evidence); err != nil {
		return failStage("SUBSCRIPTION_TRANSITION_FAILED", wrapStoreError(err))
	}
	result.SubscriptionStatus = string(target)
	logger.Info("subscription_transitioned",
		observability.F("subscription_id", p.SubscriptionRef()),
		observability.F("from", string(current)),
		observability.F("to", string(target)),
	)
	return nil
}
