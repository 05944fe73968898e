package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Smilefounder/services-core/internal/application"
	"github.com/Smilefounder/services-core/internal/domain/gateway"
	domoutbox "github.com/Smilefounder/services-core/internal/domain/outbox"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/observability/logctx"
)

const (
	settlementService     = "payment-settler"
	useCasePaymentProcess = "payment.process"
	spanPrefix            = "UC."
	publishTimeout        = 5 * time.Second
)

type ProcessPaymentInput struct {
	PaymentID string
}

type ProcessPaymentResult struct {
	Outcome           domain.Outcome
	TransactionID     int64
	TransactionStatus gateway.TransactionStatus
	// PaymentStatus and SubscriptionStatus are the targets applied in this run, empty if none.
	PaymentStatus      string
	SubscriptionStatus string
	CreditCardID       string
}

// Options carries the optional collaborators of a settlement run.
type Options struct {
	PostbackURL string
	Locker      domain.Locker
	Publisher   domoutbox.Publisher
}

// ProcessPaymentUseCase settles one pending payment against the gateway.
type ProcessPaymentUseCase struct {
	repo        domain.Repository
	gateway     gateway.Client
	locker      domain.Locker
	publisher   domoutbox.Publisher
	postbackURL string
	now         func() time.Time

	tracer     observability.Tracer
	log        observability.Logger
	reqCounter observability.Counter   // usecase_requests_total{use_case,outcome}
	durHist    observability.Histogram // usecase_duration_seconds{use_case}
}

var _ application.UseCase[ProcessPaymentInput, *ProcessPaymentResult] = (*ProcessPaymentUseCase)(nil)

func NewProcessPaymentUseCase(
	repo domain.Repository,
	gw gateway.Client,
	tel observability.Observability,
	opts Options,
) *ProcessPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()

	return &ProcessPaymentUseCase{
		repo:        repo,
		gateway:     gw,
		locker:      opts.Locker,
		publisher:   opts.Publisher,
		postbackURL: opts.PostbackURL,
		now:         time.Now,
		tracer:      tel.Tracer(),
		log:         tel.Logger().With(observability.F("service", settlementService)),
		reqCounter:  metrics.Counter(observability.MUsecaseRequests),
		durHist:     metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute runs load → build → charge → reconcile/transition (or rejection handling)
// for a single payment. Stages run strictly in order and nothing is retried.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, cmd ProcessPaymentInput) (_ *ProcessPaymentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePaymentProcess),
		observability.F("payment_id", cmd.PaymentID),
	)
	ctx = logctx.With(ctx, logger)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ProcessPayment",
		attribute.String("use_case", useCasePaymentProcess),
		attribute.String("payment.id", cmd.PaymentID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	result := &ProcessPaymentResult{}
	var publishErr error

	defer func() {
		latency := time.Since(start).Seconds()

		if span != nil {
			span.SetAttributes(attribute.String("settlement.outcome", string(result.Outcome)))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePaymentProcess),
			observability.L("outcome", outcome),
		)
		uc.durHist.Observe(latency,
			observability.L("use_case", useCasePaymentProcess),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("settlement_outcome", string(result.Outcome)),
		}
		if result.TransactionID != 0 {
			fields = append(fields,
				observability.F("transaction_id", result.TransactionID),
				observability.F("transaction_status", string(result.TransactionStatus)),
			)
		}
		if result.PaymentStatus != "" {
			fields = append(fields, observability.F("payment_status", result.PaymentStatus))
		}
		if result.SubscriptionStatus != "" {
			fields = append(fields, observability.F("subscription_status", result.SubscriptionStatus))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.PaymentID == "" {
		outcome, statusText = "error", "PAYMENT_ID_REQUIRED"
		return nil, newValidation("payment id is required")
	}
	if _, perr := uuid.Parse(cmd.PaymentID); perr != nil {
		outcome, statusText = "error", "PAYMENT_ID_INVALID"
		return nil, newValidation(fmt.Sprintf("payment id %q is not a uuid", cmd.PaymentID))
	}

	if uc.locker != nil {
		release, ok, lerr := uc.locker.Acquire(ctx, cmd.PaymentID)
		if lerr != nil {
			outcome, statusText = "error", "LOCK_FAILED"
			return nil, fmt.Errorf("%w: %w", ErrLock, lerr)
		}
		if !ok {
			statusText = "LOCKED"
			result.Outcome = domain.OutcomeLocked
			logger.Warn("payment_settlement_in_progress")
			return result, nil
		}
		defer func() {
			if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
				logger.Warn("lock_release_failed", observability.F("error", rerr))
			}
		}()
	}

	snap, err := uc.loadContext(ctx, cmd.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome, statusText = "error", "PAYMENT_NOT_FOUND"
			result.Outcome = domain.OutcomeNotFound
			logger.Warn("payment_not_found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cmd.PaymentID)
		}
		outcome, statusText = "error", "CONTEXT_LOAD_FAILED"
		return nil, wrapStoreError(err)
	}

	req := BuildCharge(snap, uc.postbackURL)

	gwOutcome, err := uc.charge(ctx, req)
	if err != nil {
		outcome, statusText = "error", "GATEWAY_UNAVAILABLE"
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	switch o := gwOutcome.(type) {
	case gateway.Declined:
		statusText = "NOT_CHARGED"
		result.Outcome = domain.OutcomeDeclined
		result.TransactionStatus = o.Transaction.Status
		// The raw response may carry card data; only its summary is logged.
		logger.Warn("gateway_declined",
			observability.F("transaction_id", o.Transaction.ID),
			observability.F("transaction_status", string(o.Transaction.Status)),
			observability.F("refuse_reason", o.Transaction.RefuseReason),
		)
		return result, nil

	case gateway.Rejected:
		statusText = "GATEWAY_REJECTED"
		result.Outcome = domain.OutcomeRejected
		if err = uc.handleRejection(ctx, snap, o, result); err != nil {
			outcome, statusText = "error", stageCode(err, "REJECTION_FAILED")
			return nil, err
		}

	case gateway.Charged:
		result.Outcome = domain.OutcomeCharged
		result.TransactionID = o.Transaction.ID
		result.TransactionStatus = o.Transaction.Status
		logger.Info("gateway_transaction_created",
			observability.F("transaction_id", o.Transaction.ID),
			observability.F("transaction_status", string(o.Transaction.Status)),
		)
		if err = uc.reconcile(ctx, snap, o, result); err != nil {
			outcome, statusText = "error", stageCode(err, "RECONCILE_FAILED")
			return nil, err
		}
		if o.Transaction.Status.Pending() {
			statusText = "AWAITING_GATEWAY"
		}

	default:
		outcome, statusText = "error", "GATEWAY_OUTCOME_UNKNOWN"
		return nil, fmt.Errorf("%w: unexpected outcome %T", ErrGateway, gwOutcome)
	}

	publishErr = uc.publish(ctx, snap, result)
	return result, nil
}

func (uc *ProcessPaymentUseCase) loadContext(ctx context.Context, paymentID string) (*domain.Snapshot, error) {
	ctx, span := uc.tracer.Start(ctx, spanPrefix+"LoadContext", attribute.String("payment.id", paymentID))
	defer span.End()

	snap, err := uc.repo.LoadContext(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("payment.method", string(snap.Payment.Data.PaymentMethod)),
		attribute.Bool("payment.has_subscription", snap.Payment.HasSubscription()),
	)
	return snap, nil
}

func (uc *ProcessPaymentUseCase) charge(ctx context.Context, req gateway.ChargeRequest) (gateway.Outcome, error) {
	ctx, span := uc.tracer.Start(ctx, spanPrefix+"Charge",
		attribute.String("payment.method", req.PaymentMethod),
		attribute.Int64("payment.amount", req.Amount),
	)
	defer span.End()

	o, err := uc.gateway.Charge(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "GATEWAY_UNAVAILABLE")
		return nil, err
	}
	return o, nil
}

func (uc *ProcessPaymentUseCase) publish(ctx context.Context, snap *domain.Snapshot, result *ProcessPaymentResult) error {
	if uc.publisher == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return uc.publisher.Publish(pubCtx, domain.PaymentSettledEvent{
		PaymentID:          snap.Payment.ID,
		SubscriptionID:     snap.Payment.SubscriptionRef(),
		Outcome:            result.Outcome,
		TransactionID:      result.TransactionID,
		TransactionStatus:  string(result.TransactionStatus),
		PaymentStatus:      result.PaymentStatus,
		SubscriptionStatus: result.SubscriptionStatus,
		OccurredAt:         uc.now().UTC(),
	})
}
