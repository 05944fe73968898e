package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Smilefounder/services-core/internal/domain/creditcard"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
)

const DefaultStatementTimeout = 5 * time.Second

const (
	loadContextSQL = `select
    row_to_json(cp.*) as payment_data,
    row_to_json(u.*) as user_data,
    row_to_json(p.*) as project_data,
    row_to_json(o.*) as project_owner_data,
    row_to_json(s.*) as subscription_data
from payment_service.catalog_payments cp
    join community_service.users u on u.id = cp.user_id
    join project_service.projects p on p.id = cp.project_id
    join community_service.users o on o.id = p.user_id
    left join payment_service.subscriptions s on s.id = cp.subscription_id
where cp.id = ?::uuid`

	saveGatewayDataSQL = `update payment_service.catalog_payments
set gateway_cached_data = ?::json,
    gateway_general_data = payment_service.__extractor_for_pagarme(?::json)
where id = ?::uuid`

	saveGatewayErrorSQL = `update payment_service.catalog_payments
set gateway_cached_data = ?::json
where id = ?::uuid`

	insertCreditCardSQL = `insert into payment_service.credit_cards (platform_id, user_id, gateway, gateway_data)
values (?::uuid, ?::uuid, ?, ?::jsonb)
returning row_to_json(credit_cards.*) as card`

	attachCreditCardSQL = `update payment_service.subscriptions
set credit_card_id = ?::uuid
where id = ?::uuid`

	transitionPaymentSQL = `select payment_service.transition_to(p, (?)::payment_service.payment_status, payment_service.__extractor_for_pagarme((?)::json)) as transitioned
from payment_service.catalog_payments p
where p.id = (?)::uuid`

	transitionSubscriptionSQL = `select payment_service.transition_to(s, (?)::payment_service.subscription_status, payment_service.__extractor_for_pagarme((?)::json)) as transitioned
from payment_service.subscriptions s
where s.id = (?)::uuid`
)

// Postgres SQLSTATEs raised by the transition functions.
const (
	codeRaiseException = "P0001"
	codeCheckViolation = "23514"
)

// Store is the Postgres settlement.Repository. Every statement is parametrized
// and bounded by the statement timeout.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

var _ domain.Repository = (*Store)(nil)

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultStatementTimeout
	}
	return &Store{db: db, timeout: timeout}
}

type contextRow struct {
	PaymentData      datatypes.JSON `gorm:"column:payment_data"`
	UserData         datatypes.JSON `gorm:"column:user_data"`
	ProjectData      datatypes.JSON `gorm:"column:project_data"`
	ProjectOwnerData datatypes.JSON `gorm:"column:project_owner_data"`
	SubscriptionData datatypes.JSON `gorm:"column:subscription_data"`
}

func (s *Store) LoadContext(ctx context.Context, paymentID string) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row contextRow
	res := s.db.WithContext(ctx).Raw(loadContextSQL, paymentID).Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("postgres: load context: %w", mapError(res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return row.snapshot()
}

func (r contextRow) snapshot() (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	parts := []struct {
		name string
		data datatypes.JSON
		dst  any
	}{
		{"payment", r.PaymentData, &snap.Payment},
		{"user", r.UserData, &snap.Buyer},
		{"project", r.ProjectData, &snap.Project},
		{"project owner", r.ProjectOwnerData, &snap.ProjectOwner},
	}
	for _, p := range parts {
		if err := decode(p.data, p.dst); err != nil {
			return nil, fmt.Errorf("postgres: decode %s: %w", p.name, err)
		}
	}
	if !isNull(r.SubscriptionData) {
		sub := &subscription.Subscription{}
		if err := decode(r.SubscriptionData, sub); err != nil {
			return nil, fmt.Errorf("postgres: decode subscription: %w", err)
		}
		snap.Subscription = sub
	}
	return snap, nil
}

func (s *Store) SaveGatewayData(ctx context.Context, paymentID string, data json.RawMessage) error {
	return s.exec(ctx, "save gateway data", saveGatewayDataSQL, string(data), string(data), paymentID)
}

func (s *Store) SaveGatewayError(ctx context.Context, paymentID string, data json.RawMessage) error {
	return s.exec(ctx, "save gateway error", saveGatewayErrorSQL, string(data), paymentID)
}

func (s *Store) InsertCreditCard(ctx context.Context, card creditcard.New) (*creditcard.CreditCard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row struct {
		Card datatypes.JSON `gorm:"column:card"`
	}
	res := s.db.WithContext(ctx).
		Raw(insertCreditCardSQL, card.PlatformID, card.UserID, card.Gateway, datatypes.JSON(card.GatewayData)).
		Scan(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("postgres: insert credit card: %w", mapError(res.Error))
	}
	if res.RowsAffected == 0 || isNull(row.Card) {
		return nil, errors.New("postgres: insert credit card: no row returned")
	}
	out := &creditcard.CreditCard{}
	if err := decode(row.Card, out); err != nil {
		return nil, fmt.Errorf("postgres: decode credit card: %w", err)
	}
	return out, nil
}

func (s *Store) AttachCreditCard(ctx context.Context, subscriptionID, creditCardID string) error {
	return s.exec(ctx, "attach credit card", attachCreditCardSQL, creditCardID, subscriptionID)
}

func (s *Store) Transition(ctx context.Context, ref domain.Ref, status string, evidence json.RawMessage) error {
	var q string
	switch ref.Entity {
	case domain.EntityPayment:
		q = transitionPaymentSQL
	case domain.EntitySubscription:
		q = transitionSubscriptionSQL
	default:
		return fmt.Errorf("postgres: unknown entity %q", ref.Entity)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row struct {
		Transitioned *bool `gorm:"column:transitioned"`
	}
	res := s.db.WithContext(ctx).Raw(q, status, string(evidence), ref.ID).Scan(&row)
	if res.Error != nil {
		return fmt.Errorf("postgres: transition %s %s to %s: %w", ref.Entity, ref.ID, status, mapError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("postgres: transition %s %s: %w", ref.Entity, ref.ID, domain.ErrNotFound)
	}
	if row.Transitioned == nil || !*row.Transitioned {
		return fmt.Errorf("%w: %s %s to %s not applied", domain.ErrInvalidTransition, ref.Entity, ref.ID, status)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, op, q string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(ctx).Exec(q, args...)
	if res.Error != nil {
		return fmt.Errorf("postgres: %s: %w", op, mapError(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("postgres: %s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// mapError turns state machine rejections raised by the database into
// ErrInvalidTransition and leaves everything else untouched.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeRaiseException, codeCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, pgErr.Message)
		}
	}
	return err
}

func decode(data datatypes.JSON, dst any) error {
	if isNull(data) {
		return errors.New("missing document")
	}
	return json.Unmarshal(data, dst)
}

func isNull(data datatypes.JSON) bool {
	return len(data) == 0 || string(data) == "null"
}

