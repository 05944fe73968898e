package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Smilefounder/services-core/internal/domain/creditcard"
	"github.com/Smilefounder/services-core/internal/domain/payment"
	"github.com/Smilefounder/services-core/internal/domain/project"
	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
	"github.com/Smilefounder/services-core/internal/domain/subscription"
)

const (
	payID = "5b2a3c1e-9f0d-4b8e-8a44-0c6d3f1e2a10"
	subID = "8c1f0a7e-2d4b-4e3a-9b5c-1a2b3c4d5e6f"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig())
	require.NoError(t, err)
	return NewStore(db, time.Second), mock
}

func contextColumns() []string {
	return []string{"payment_data", "user_data", "project_data", "project_owner_data", "subscription_data"}
}

const paymentRow = `{
	"id": "5b2a3c1e-9f0d-4b8e-8a44-0c6d3f1e2a10",
	"user_id": "0f8c7e1a-1111-4a4a-8b8b-000000000001",
	"project_id": "0f8c7e1a-2222-4a4a-8b8b-000000000002",
	"platform_id": "0f8c7e1a-3333-4a4a-8b8b-000000000003",
	"subscription_id": "8c1f0a7e-2d4b-4e3a-9b5c-1a2b3c4d5e6f",
	"status": "pending",
	"created_at": "2017-06-05T16:22:21.123456",
	"gateway_cached_data": null,
	"data": {
		"amount": 5000,
		"payment_method": "credit_card",
		"card_hash": "abc",
		"save_card": true,
		"current_ip": "200.10.10.1",
		"customer": {"name": "Maria", "document_number": "222", "address": {"street": "Rua A", "city": "SP"}, "phone": {"ddd": "11"}}
	}
}`

func TestStoreLoadContext(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(contextColumns()).AddRow(
		[]byte(paymentRow),
		[]byte(`{"id":"0f8c7e1a-1111-4a4a-8b8b-000000000001","created_at":"2016-01-01T10:00:00","data":{"name":"Maria"}}`),
		[]byte(`{"id":"0f8c7e1a-2222-4a4a-8b8b-000000000002","mode":"aon","data":{"name":"Livro","expires_at":"2017-08-01T23:59:59"}}`),
		[]byte(`{"id":"0f8c7e1a-4444-4a4a-8b8b-000000000004","data":{"name":"Editora","address":null}}`),
		[]byte(`{"id":"8c1f0a7e-2d4b-4e3a-9b5c-1a2b3c4d5e6f","status":"active","credit_card_id":null}`),
	)
	mock.ExpectQuery(regexp.QuoteMeta("left join payment_service.subscriptions s on s.id = cp.subscription_id")).
		WithArgs(payID).
		WillReturnRows(rows)

	snap, err := store.LoadContext(context.Background(), payID)
	require.NoError(t, err)

	assert.Equal(t, payID, snap.Payment.ID)
	assert.Equal(t, payment.StatusPending, snap.Payment.Status)
	assert.Equal(t, int64(5000), snap.Payment.Data.Amount)
	assert.True(t, snap.Payment.Data.SaveCard)
	assert.Equal(t, subID, snap.Payment.SubscriptionRef())
	assert.Equal(t, "2016-01-01T10:00:00", snap.Buyer.CreatedAt)
	assert.Equal(t, project.ModeAllOrNothing, snap.Project.Mode)
	assert.Nil(t, snap.ProjectOwner.Data.Address)
	require.NotNil(t, snap.Subscription)
	assert.Equal(t, subscription.StatusActive, snap.Subscription.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoadContextWithoutSubscription(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows(contextColumns()).AddRow(
		[]byte(`{"id":"`+payID+`","status":"pending","subscription_id":null,"data":{"amount":100}}`),
		[]byte(`{"id":"u"}`), []byte(`{"id":"p","mode":"flex"}`), []byte(`{"id":"o"}`), nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("from payment_service.catalog_payments cp")).WithArgs(payID).WillReturnRows(rows)

	snap, err := store.LoadContext(context.Background(), payID)
	require.NoError(t, err)
	assert.Nil(t, snap.Subscription)
	assert.False(t, snap.Payment.HasSubscription())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreLoadContextNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("from payment_service.catalog_payments cp")).
		WithArgs(payID).
		WillReturnRows(sqlmock.NewRows(contextColumns()))

	_, err := store.LoadContext(context.Background(), payID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveGatewayData(t *testing.T) {
	store, mock := newMockStore(t)
	data := json.RawMessage(`{"transaction":{"id":1},"payables":[]}`)

	mock.ExpectExec(regexp.QuoteMeta("gateway_general_data = payment_service.__extractor_for_pagarme(")).
		WithArgs(string(data), string(data), payID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveGatewayData(context.Background(), payID, data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreSaveGatewayErrorMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("set gateway_cached_data = ")).
		WithArgs(`[]`, payID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SaveGatewayError(context.Background(), payID, json.RawMessage(`[]`))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertAndAttachCreditCard(t *testing.T) {
	store, mock := newMockStore(t)
	cardID := "c0ffee00-0000-4000-8000-000000000001"

	mock.ExpectQuery(regexp.QuoteMeta("insert into payment_service.credit_cards")).
		WithArgs("platform-1", "user-1", creditcard.GatewayPagarme, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"card"}).AddRow(
			[]byte(`{"id":"` + cardID + `","platform_id":"platform-1","user_id":"user-1","gateway":"pagarme","gateway_data":{"id":"card_x"},"created_at":"2017-06-05T16:22:21"}`),
		))
	mock.ExpectExec(regexp.QuoteMeta("update payment_service.subscriptions")).
		WithArgs(cardID, subID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	card, err := store.InsertCreditCard(context.Background(), creditcard.New{
		PlatformID:  "platform-1",
		UserID:      "user-1",
		Gateway:     creditcard.GatewayPagarme,
		GatewayData: json.RawMessage(`{"id":"card_x"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, cardID, card.ID)
	assert.JSONEq(t, `{"id":"card_x"}`, string(card.GatewayData))

	require.NoError(t, store.AttachCreditCard(context.Background(), subID, card.ID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTransition(t *testing.T) {
	store, mock := newMockStore(t)
	evidence := json.RawMessage(`{"transaction":{"status":"paid"}}`)

	mock.ExpectQuery(regexp.QuoteMeta("::payment_service.payment_status")).
		WithArgs("paid", string(evidence), payID).
		WillReturnRows(sqlmock.NewRows([]string{"transitioned"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("::payment_service.subscription_status")).
		WithArgs("active", string(evidence), subID).
		WillReturnRows(sqlmock.NewRows([]string{"transitioned"}).AddRow(true))

	ctx := context.Background()
	require.NoError(t, store.Transition(ctx, domain.PaymentRef(payID), "paid", evidence))
	require.NoError(t, store.Transition(ctx, domain.SubscriptionRef(subID), "active", evidence))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTransitionErrors(t *testing.T) {
	t.Run("rejected by state machine", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("payment_service.transition_to(p,")).
			WillReturnError(&pgconn.PgError{Code: "P0001", Message: "invalid status transition"})

		err := store.Transition(context.Background(), domain.PaymentRef(payID), "pending", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("missing row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("payment_service.transition_to(s,")).
			WillReturnRows(sqlmock.NewRows([]string{"transitioned"}))

		err := store.Transition(context.Background(), domain.SubscriptionRef(subID), "active", nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("refused without raising", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("payment_service.transition_to(p,")).
			WithArgs("refused", `{}`, payID).
			WillReturnRows(sqlmock.NewRows([]string{"transitioned"}).AddRow(false))

		err := store.Transition(context.Background(), domain.PaymentRef(payID), "refused", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null result", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("payment_service.transition_to(s,")).
			WillReturnRows(sqlmock.NewRows([]string{"transitioned"}).AddRow(nil))

		err := store.Transition(context.Background(), domain.SubscriptionRef(subID), "active", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("connection failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("connection reset by peer")
		mock.ExpectQuery(regexp.QuoteMeta("payment_service.transition_to(p,")).WillReturnError(boom)

		err := store.Transition(context.Background(), domain.PaymentRef(payID), "paid", nil)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("unknown entity", func(t *testing.T) {
		store, _ := newMockStore(t)
		err := store.Transition(context.Background(), domain.Ref{Entity: "project", ID: payID}, "paid", nil)
		assert.Error(t, err)
	})
}

func TestWithStatementTimeout(t *testing.T) {
	got, err := withStatementTimeout("postgres://u:p@db:5432/catarse?sslmode=disable", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, got, "statement_timeout=5000")
	assert.Contains(t, got, "sslmode=disable")

	got, err = withStatementTimeout("host=db user=u dbname=catarse", 2500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "host=db user=u dbname=catarse statement_timeout=2500", got)

	got, err = withStatementTimeout("postgres://db/catarse?statement_timeout=100", 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, got, "statement_timeout=100")
	assert.NotContains(t, got, "5000")

	got, err = withStatementTimeout("host=db", 0)
	require.NoError(t, err)
	assert.Equal(t, "host=db", got)
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open("  ", time.Second)
	assert.ErrorIs(t, err, ErrMissingDSN)
	assert.NoError(t, Close(nil))
}
