package settlement

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Smilefounder/services-core/internal/domain/creditcard"
)

var (
	ErrNotFound          = errors.New("settlement: not found")
	ErrInvalidTransition = errors.New("settlement: invalid transition")
)

// Entity selects which state machine a transition applies to.
type Entity string

const (
	EntityPayment      Entity = "payment"
	EntitySubscription Entity = "subscription"
)

// Ref points at one row of a state machine.
type Ref struct {
	Entity Entity
	ID     string
}

func PaymentRef(id string) Ref      { return Ref{Entity: EntityPayment, ID: id} }
func SubscriptionRef(id string) Ref { return Ref{Entity: EntitySubscription, ID: id} }

// Repository is the store capability set used by a settlement run. Every
// write is keyed by id so replaying it is safe at the row level.
type Repository interface {
	// LoadContext returns ErrNotFound when the payment does not exist.
	LoadContext(ctx context.Context, paymentID string) (*Snapshot, error)
	// SaveGatewayData stores data as the cached response and its normalized extraction.
	SaveGatewayData(ctx context.Context, paymentID string, data json.RawMessage) error
	// SaveGatewayError overwrites only the cached response.
	SaveGatewayError(ctx context.Context, paymentID string, data json.RawMessage) error
	InsertCreditCard(ctx context.Context, card creditcard.New) (*creditcard.CreditCard, error)
	AttachCreditCard(ctx context.Context, subscriptionID, creditCardID string) error
	// Transition delegates validation to the store and returns
	// ErrInvalidTransition when the target is unreachable.
	Transition(ctx context.Context, ref Ref, status string, evidence json.RawMessage) error
}

// Locker guards a payment against concurrent settlement runs.
type Locker interface {
	// Acquire returns ok=false when another run holds the lock.
	Acquire(ctx context.Context, paymentID string) (release func(context.Context) error, ok bool, err error)
}
