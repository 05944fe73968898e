package settlement

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Smilefounder/services-core/internal/domain/creditcard"
	"github.com/Smilefounder/services-core/internal/domain/gateway"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

// reconcile persists a charged outcome, keeps the card when it is reusable,
// and transitions once the gateway has decided.
func (uc *ProcessPaymentUseCase) reconcile(ctx context.Context, snap *domain.Snapshot, charged gateway.Charged, result *ProcessPaymentResult) error {
	p := snap.Payment
	tx := charged.Transaction
	logger := logctx.FromOr(ctx, uc.log)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Reconcile",
		attribute.String("payment.id", p.ID),
		attribute.Int64("gateway.transaction_id", tx.ID),
		attribute.String("gateway.transaction_status", string(tx.Status)),
		attribute.Int("gateway.payables", len(charged.Payables)),
	)
	defer span.End()

	cached, err := charged.CachedData()
	if err != nil {
		return failStage("GATEWAY_DATA_ENCODE_FAILED", err)
	}
	if err := uc.repo.SaveGatewayData(ctx, p.ID, cached); err != nil {
		return failStage("GATEWAY_DATA_SAVE_FAILED", wrapStoreError(err))
	}

	if tx.HasCard() && (p.Data.SaveCard || p.HasSubscription()) {
		card, err := uc.repo.InsertCreditCard(ctx, creditcard.New{
			PlatformID:  p.PlatformID,
			UserID:      p.UserID,
			Gateway:     creditcard.GatewayPagarme,
			GatewayData: tx.Card,
		})
		if err != nil {
			return failStage("CARD_SAVE_FAILED", wrapStoreError(err))
		}
		result.CreditCardID = card.ID
		logger.Info("credit_card_saved", observability.F("credit_card_id", card.ID))

		if p.HasSubscription() {
			if err := uc.repo.AttachCreditCard(ctx, p.SubscriptionRef(), card.ID); err != nil {
				return failStage("CARD_ATTACH_FAILED", wrapStoreError(err))
			}
		}
	}

	if tx.Status.Pending() {
		logger.Info("payment_awaiting_gateway", observability.F("transaction_status", string(tx.Status)))
		return nil
	}

	return uc.transition(ctx, snap, tx.Status, cached, result)
}
