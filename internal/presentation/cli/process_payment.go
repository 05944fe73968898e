package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	appsettlement "github.com/Smilefounder/services-core/internal/application/settlement"
	"github.com/Smilefounder/services-core/internal/config"
	"github.com/Smilefounder/services-core/internal/domain/gateway"
	"github.com/Smilefounder/services-core/internal/infrastructure/kafka"
	infraobs "github.com/Smilefounder/services-core/internal/infrastructure/observability"
	"github.com/Smilefounder/services-core/internal/infrastructure/observability/oteltrace"
	"github.com/Smilefounder/services-core/internal/infrastructure/observability/prometrics"
	"github.com/Smilefounder/services-core/internal/infrastructure/observability/zaplogger"
	"github.com/Smilefounder/services-core/internal/infrastructure/pagarme"
	"github.com/Smilefounder/services-core/internal/infrastructure/postgres"
	"github.com/Smilefounder/services-core/internal/infrastructure/redislock"
	"github.com/Smilefounder/services-core/internal/observability"
	"github.com/Smilefounder/services-core/internal/pkg/logging"
	workerpresentation "github.com/Smilefounder/services-core/internal/presentation/worker"
)

const (
	metricsJob   = "process_payment"
	flushTimeout = 5 * time.Second
)

// NewProcessPaymentCommand builds the one-shot settlement command. The payment
// id comes from --payment-id or from a JSON document on stdin.
func NewProcessPaymentCommand() *cobra.Command {
	var (
		configPath string
		paymentID  string
	)
	cmd := &cobra.Command{
		Use:           "process-payment",
		Short:         "Charge one pending catalog payment on the gateway and settle it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv := &workerpresentation.Invocation{ID: paymentID}
			if paymentID == "" {
				var err error
				if inv, err = workerpresentation.ParseInvocation(cmd.InOrStdin()); err != nil {
					return err
				}
				if inv == nil {
					return nil
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, *inv)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML file overlaid by environment variables")
	cmd.Flags().StringVar(&paymentID, "payment-id", "", "payment id to settle instead of reading stdin")
	return cmd
}

// backends opens the collaborators that talk to the outside world.
type backends struct {
	openStore  func(dsn string, statementTimeout time.Duration) (*gorm.DB, error)
	newGateway func(cfg pagarme.Config, tel observability.Observability) (gateway.Client, error)
}

func defaultBackends() backends {
	return backends{
		openStore: postgres.Open,
		newGateway: func(cfg pagarme.Config, tel observability.Observability) (gateway.Client, error) {
			return pagarme.NewClient(cfg, tel)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, inv workerpresentation.Invocation) error {
	return runWith(ctx, cfg, inv, defaultBackends())
}

// runWith settles a single payment. The store is released on every path before a
// recovered panic is reported.
func runWith(ctx context.Context, cfg *config.Config, inv workerpresentation.Invocation, be backends) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("process-payment: panic: %v", r)
		}
	}()

	zl, err := logging.NewLogger(logging.Options{
		Service: cfg.Service,
		Env:     cfg.Env,
		Level:   cfg.Log.Level,
		LogFile: cfg.Log.File,
	})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	logger := zaplogger.New(zl)
	tel := infraobs.New(infraobs.Options{
		Tracer:         oteltrace.New(cfg.Service),
		Logger:         logger,
		Registry:       prometrics.New("", ""),
		PushgatewayURL: cfg.Metrics.PushgatewayURL,
		Job:            metricsJob,
		Grouping:       map[string]string{"env": cfg.Env},
	})
	defer flushTelemetry(tel, logger)

	ctx, invocationID := workerpresentation.WithInvocation(ctx, logger, inv)

	db, err := be.openStore(cfg.DB.URL, cfg.DB.StatementTimeout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := postgres.Close(db); cerr != nil {
			logger.Warn("store_close_failed", observability.F("error", cerr))
		}
	}()

	gw, err := be.newGateway(pagarme.Config{
		APIKey:  cfg.Gateway.APIKey,
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
	}, tel)
	if err != nil {
		return err
	}

	opts := appsettlement.Options{PostbackURL: cfg.Gateway.PostbackURL}

	if cfg.Lock.RedisURL != "" {
		client, err := redislock.Dial(ctx, cfg.Lock.RedisURL)
		if err != nil {
			return err
		}
		defer closeQuietly(logger, "redis", client)
		opts.Locker = redislock.New(client, cfg.Lock.TTL)
	}

	if len(cfg.Events.Brokers) > 0 {
		producer, err := kafka.NewSyncProducer(cfg.Events.Brokers, cfg.Service)
		if err != nil {
			// Events are best effort; settlement proceeds without them.
			logger.Warn("event_publisher_unavailable", observability.F("error", err))
		} else {
			defer closeQuietly(logger, "kafka", producer)
			opts.Publisher = kafka.NewPublisher(producer, cfg.Events.Topic)
		}
	}

	uc := appsettlement.NewProcessPaymentUseCase(postgres.NewStore(db, cfg.DB.StatementTimeout), gw, tel, opts)
	if _, err := uc.Execute(ctx, appsettlement.ProcessPaymentInput{PaymentID: inv.ID}); err != nil {
		return fmt.Errorf("process-payment %s: %w", invocationID, err)
	}
	return nil
}

func flushTelemetry(tel observability.Observability, logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := observability.Flush(ctx, tel); err != nil {
		logger.Warn("metrics_push_failed", observability.F("error", err))
	}
}

func closeQuietly(logger observability.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		logger.Warn("close_failed", observability.F("resource", name), observability.F("error", err))
	}
}
