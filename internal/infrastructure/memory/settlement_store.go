package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Smilefounder/services-core/internal/domain/creditcard"
	"github.com/Smilefounder/services-core/internal/domain/payment"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
)

// Transitions mirrors the store's transition table closely enough for use case tests.
var (
	paymentTransitions = map[string][]string{
		string(payment.StatusPending):        {"processing", "waiting_payment", "paid", "refused", "error"},
		string(payment.StatusProcessing):     {"waiting_payment", "paid", "refused", "error"},
		string(payment.StatusWaitingPayment): {"paid", "refused", "error"},
		string(payment.StatusPaid):           {"refunded", "chargedback", "pending_refund"},
	}
	subscriptionTransitions = map[string][]string{
		string(subscription.StatusStarted):  {"active", "inactive", "canceled"},
		string(subscription.StatusActive):   {"active", "inactive", "canceling", "canceled"},
		string(subscription.StatusInactive): {"active", "canceled"},
	}
)

// Write records one mutation applied to the store.
type Write struct {
	Op       string
	ID       string
	Status   string
	Evidence json.RawMessage
}

// SettlementStore is an in-memory settlement.Repository backing the use case tests.
type SettlementStore struct {
	mu            sync.RWMutex
	snapshots     map[string]*domain.Snapshot
	subscriptions map[string]*subscription.Subscription
	cards         map[string]*creditcard.CreditCard
	writes        []Write
	// Fail, when set, is consulted before every write and may inject an error.
	Fail func(op string) error
}

func NewSettlementStore() *SettlementStore {
	return &SettlementStore{
		snapshots:     make(map[string]*domain.Snapshot),
		subscriptions: make(map[string]*subscription.Subscription),
		cards:         make(map[string]*creditcard.CreditCard),
	}
}

// Put seeds a snapshot; the subscription row, if any, becomes addressable by id.
func (s *SettlementStore) Put(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneSnapshot(snap)
	s.snapshots[clone.Payment.ID] = clone
	if clone.Subscription != nil {
		sub := *clone.Subscription
		s.subscriptions[sub.ID] = &sub
	}
}

func (s *SettlementStore) LoadContext(ctx context.Context, paymentID string) (*domain.Snapshot, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[paymentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSnapshot(snap)
	if out.Subscription != nil {
		if sub, ok := s.subscriptions[out.Subscription.ID]; ok {
			cp := *sub
			out.Subscription = &cp
		}
	}
	return out, nil
}

func (s *SettlementStore) SaveGatewayData(ctx context.Context, paymentID string, data json.RawMessage) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("save_gateway_data"); err != nil {
		return err
	}
	snap, ok := s.snapshots[paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	snap.Payment.GatewayCachedData = clone(data)
	snap.Payment.GatewayGeneralData = extract(data)
	s.writes = append(s.writes, Write{Op: "save_gateway_data", ID: paymentID, Evidence: clone(data)})
	return nil
}

func (s *SettlementStore) SaveGatewayError(ctx context.Context, paymentID string, data json.RawMessage) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("save_gateway_error"); err != nil {
		return err
	}
	snap, ok := s.snapshots[paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	snap.Payment.GatewayCachedData = clone(data)
	s.writes = append(s.writes, Write{Op: "save_gateway_error", ID: paymentID, Evidence: clone(data)})
	return nil
}

func (s *SettlementStore) InsertCreditCard(ctx context.Context, card creditcard.New) (*creditcard.CreditCard, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("insert_credit_card"); err != nil {
		return nil, err
	}
	if card.PlatformID == "" || card.UserID == "" {
		return nil, fmt.Errorf("settlement store: platform and user are required")
	}
	row := &creditcard.CreditCard{
		ID:          uuid.NewString(),
		PlatformID:  card.PlatformID,
		UserID:      card.UserID,
		Gateway:     card.Gateway,
		GatewayData: clone(card.GatewayData),
	}
	s.cards[row.ID] = row
	s.writes = append(s.writes, Write{Op: "insert_credit_card", ID: row.ID})
	cp := *row
	return &cp, nil
}

func (s *SettlementStore) AttachCreditCard(ctx context.Context, subscriptionID, creditCardID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fail("attach_credit_card"); err != nil {
		return err
	}
	sub, ok := s.subscriptions[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	id := creditCardID
	sub.CreditCardID = &id
	s.writes = append(s.writes, Write{Op: "attach_credit_card", ID: subscriptionID, Status: creditCardID})
	return nil
}

func (s *SettlementStore) Transition(ctx context.Context, ref domain.Ref, status string, evidence json.RawMessage) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	op := "transition_" + string(ref.Entity)
	if err := s.fail(op); err != nil {
		return err
	}

	switch ref.Entity {
	case domain.EntityPayment:
		snap, ok := s.snapshots[ref.ID]
		if !ok {
			return domain.ErrNotFound
		}
		from := string(snap.Payment.Status)
		if !slices.Contains(paymentTransitions[from], status) {
			return fmt.Errorf("%w: payment %s -> %s", domain.ErrInvalidTransition, from, status)
		}
		snap.Payment.Status = payment.Status(status)
	case domain.EntitySubscription:
		sub, ok := s.subscriptions[ref.ID]
		if !ok {
			return domain.ErrNotFound
		}
		from := string(sub.Status)
		if !slices.Contains(subscriptionTransitions[from], status) {
			return fmt.Errorf("%w: subscription %s -> %s", domain.ErrInvalidTransition, from, status)
		}
		sub.Status = subscription.Status(status)
	default:
		return fmt.Errorf("settlement store: unknown entity %q", ref.Entity)
	}

	s.writes = append(s.writes, Write{Op: op, ID: ref.ID, Status: status, Evidence: clone(evidence)})
	return nil
}

// Payment returns the current payment row.
func (s *SettlementStore) Payment(id string) (payment.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return payment.Payment{}, false
	}
	return cloneSnapshot(snap).Payment, true
}

// Subscription returns the current subscription row.
func (s *SettlementStore) Subscription(id string) (subscription.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return subscription.Subscription{}, false
	}
	return *sub, true
}

// CreditCards lists stored card references.
func (s *SettlementStore) CreditCards() []creditcard.CreditCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]creditcard.CreditCard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, *c)
	}
	return out
}

// Writes lists every mutation in the order it was applied.
func (s *SettlementStore) Writes() []Write {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.writes)
}

func (s *SettlementStore) fail(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op)
}

// extract is a small stand-in for the store's gateway extraction function.
func extract(data json.RawMessage) json.RawMessage {
	var doc struct {
		Transaction struct {
			ID     json.Number `json:"id"`
			Status string      `json:"status"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	out, _ := json.Marshal(map[string]string{
		"gateway_id": doc.Transaction.ID.String(),
		"status":     doc.Transaction.Status,
	})
	return out
}

func clone(b json.RawMessage) json.RawMessage {
	if b == nil {
		return nil
	}
	return append(json.RawMessage(nil), b...)
}

func cloneSnapshot(snap *domain.Snapshot) *domain.Snapshot {
	if snap == nil {
		return nil
	}
	cp := *snap
	if snap.Payment.SubscriptionID != nil {
		id := *snap.Payment.SubscriptionID
		cp.Payment.SubscriptionID = &id
	}
	cp.Payment.GatewayCachedData = clone(snap.Payment.GatewayCachedData)
	cp.Payment.GatewayGeneralData = clone(snap.Payment.GatewayGeneralData)
	if snap.Subscription != nil {
		sub := *snap.Subscription
		cp.Subscription = &sub
	}
	return &cp
}
