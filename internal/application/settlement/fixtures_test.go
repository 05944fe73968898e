package settlement

import (
	"context"
	"encoding/json"

	"github.com/Smilefounder/services-core/internal/domain/gateway"
	"github.com/Smilefounder/services-core/internal/domain/outbox"
	"github.com/Smilefounder/services-core/internal/domain/payment"
	"github.com/Smilefounder/services-core/internal/domain/project"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
	"github.com/Smilefounder/services-core/internal/domain/user"
)

const (
	paymentID      = "5b2a3c1e-9f0d-4b8e-8a44-0c6d3f1e2a10"
	subscriptionID = "8c1f0a7e-2d4b-4e3a-9b5c-1a2b3c4d5e6f"
	postbackURL    = "https://payments.example.org/postback"
)

type fakeGateway struct {
	chargeFn func(ctx context.Context, req gateway.ChargeRequest) (gateway.Outcome, error)
	requests []gateway.ChargeRequest
}

func (f *fakeGateway) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.Outcome, error) {
	f.requests = append(f.requests, req)
	return f.chargeFn(ctx, req)
}

func returning(o gateway.Outcome) *fakeGateway {
	return &fakeGateway{chargeFn: func(context.Context, gateway.ChargeRequest) (gateway.Outcome, error) {
		return o, nil
	}}
}

type fakePublisher struct {
	events []outbox.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e outbox.Event) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (f *fakeLocker) Acquire(context.Context, string) (func(context.Context) error, bool, error) {
	if f.err != nil || f.held {
		return nil, false, f.err
	}
	return func(context.Context) error {
		f.released++
		return nil
	}, true, nil
}

type snapshotOption func(*domain.Snapshot)

func withSubscription(status subscription.Status) snapshotOption {
	return func(s *domain.Snapshot) {
		id := subscriptionID
		s.Payment.SubscriptionID = &id
		s.Subscription = &subscription.Subscription{ID: subscriptionID, Status: status}
	}
}

func withCard(hash, id string) snapshotOption {
	return func(s *domain.Snapshot) {
		s.Payment.Data.CardHash = hash
		s.Payment.Data.CardID = id
	}
}

func withSaveCard() snapshotOption {
	return func(s *domain.Snapshot) { s.Payment.Data.SaveCard = true }
}

func withMethod(m payment.Method) snapshotOption {
	return func(s *domain.Snapshot) { s.Payment.Data.PaymentMethod = m }
}

func withMode(m project.Mode) snapshotOption {
	return func(s *domain.Snapshot) { s.Project.Mode = m }
}

func newSnapshot(opts ...snapshotOption) *domain.Snapshot {
	snap := &domain.Snapshot{
		Payment: payment.Payment{
			ID:         paymentID,
			UserID:     "0f8c7e1a-1111-4a4a-8b8b-000000000001",
			ProjectID:  "0f8c7e1a-2222-4a4a-8b8b-000000000002",
			PlatformID: "0f8c7e1a-3333-4a4a-8b8b-000000000003",
			Status:     payment.StatusPending,
			CreatedAt:  "2017-06-05T16:22:21.123456",
			Data: payment.Data{
				Amount:                  5000,
				PaymentMethod:           payment.MethodCreditCard,
				CardHash:                "abc",
				CurrentIP:               "200.10.10.1",
				CreditCardOwnerDocument: "111.111.111-11",
				Customer: payment.Customer{
					Name:           "Maria Silva",
					Email:          "maria@example.org",
					DocumentNumber: "222.222.222-22",
					Address: payment.Address{
						Street:        "Rua das Flores",
						StreetNumber:  "42",
						Neighborhood:  "Centro",
						Zipcode:       "01001-000",
						Country:       "Brasil",
						State:         "SP",
						City:          "São Paulo",
						Complementary: "apto 3",
					},
					Phone: payment.Phone{DDI: "55", DDD: "11", Number: "999999999"},
				},
			},
		},
		Buyer: user.User{ID: "0f8c7e1a-1111-4a4a-8b8b-000000000001", CreatedAt: "2016-01-01T10:00:00"},
		Project: project.Project{
			ID:   "0f8c7e1a-2222-4a4a-8b8b-000000000002",
			Mode: project.ModeAllOrNothing,
			Data: project.Data{Name: "Livro de Receitas", ExpiresAt: "2017-08-01T23:59:59"},
		},
		ProjectOwner: user.User{
			ID: "0f8c7e1a-4444-4a4a-8b8b-000000000004",
			Data: user.Data{
				Name: "Editora Aurora",
				Address: &user.Address{
					Street: "Av. Paulista", StreetNumber: "1000", Neighborhood: "Bela Vista",
					Zipcode: "01310-100", State: "SP", City: "São Paulo",
				},
			},
		},
	}
	for _, opt := range opts {
		opt(snap)
	}
	return snap
}

func transaction(id int64, status gateway.TransactionStatus, card string) gateway.Transaction {
	doc := map[string]any{"object": "transaction", "status": status}
	if id != 0 {
		doc["id"] = id
	}
	if card != "" {
		doc["card"] = json.RawMessage(card)
	}
	raw, _ := json.Marshal(doc)
	var tx gateway.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		panic(err)
	}
	return tx
}
