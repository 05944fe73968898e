package settlement

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Smilefounder/services-core/internal/domain/payment"
	"github.com/Smilefounder/services-core/internal/domain/project"
)

func TestBuildChargePrefersCardHashOverCardID(t *testing.T) {
	req := BuildCharge(newSnapshot(withCard("abc", "card_123")), postbackURL)

	assert.Equal(t, "abc", req.CardHash)
	assert.Empty(t, req.CardID)
}

func TestBuildChargeFallsBackToCardID(t *testing.T) {
	req := BuildCharge(newSnapshot(withCard("", "card_123")), postbackURL)

	assert.Empty(t, req.CardHash)
	assert.Equal(t, "card_123", req.CardID)
}

func TestBuildChargeAttachesNoCardForBoleto(t *testing.T) {
	req := BuildCharge(newSnapshot(withMethod(payment.MethodBoleto), withCard("abc", "card_123")), postbackURL)

	assert.Equal(t, "boleto", req.PaymentMethod)
	assert.Empty(t, req.CardHash)
	assert.Empty(t, req.CardID)

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "card_hash")
	assert.NotContains(t, string(raw), "card_id")
}

func TestBuildChargeAllOrNothingScenario(t *testing.T) {
	snap := newSnapshot(withMode(project.ModeAllOrNothing), withCard("abc", ""))

	req := BuildCharge(snap, postbackURL)

	require.Len(t, req.AntifraudMetadata.Events, 1)
	event := req.AntifraudMetadata.Events[0]
	assert.Equal(t, "full", event.Type)
	assert.Equal(t, snap.Project.ID, event.ID)
	assert.Equal(t, "Livro de Receitas", event.Name)
	assert.Equal(t, "2017-08-01T23:59:59", event.Date)
	assert.Equal(t, "Editora Aurora", event.VenueName)
	assert.Equal(t, "Brasil", event.Address.Country)
	assert.Equal(t, "Av. Paulista", event.Address.Street)
	require.Len(t, event.TicketTypes, 1)
	assert.Equal(t, int64(5000), event.TicketTypes[0].Price)
	assert.Equal(t, paymentID, event.TicketTypes[0].ID)

	assert.Equal(t, int64(5000), req.Amount)
	assert.Equal(t, "credit_card", req.PaymentMethod)
	assert.Equal(t, "abc", req.CardHash)
}

func TestBuildChargePassesOtherModesThrough(t *testing.T) {
	for _, mode := range []project.Mode{project.ModeFlexible, project.ModeSubscription, "custom"} {
		req := BuildCharge(newSnapshot(withMode(mode)), postbackURL)
		assert.Equal(t, string(mode), req.AntifraudMetadata.Events[0].Type, "mode %s", mode)
	}
}

func TestBuildChargeShoppingCartAndMetadata(t *testing.T) {
	snap := newSnapshot(withSubscription("started"))
	snap.Payment.Data.Amount = 5050

	req := BuildCharge(snap, postbackURL)

	require.Len(t, req.AntifraudMetadata.ShoppingCart, 1)
	item := req.AntifraudMetadata.ShoppingCart[0]
	assert.Equal(t, "50.5 - Livro de Receitas", item.Name)
	assert.Equal(t, int64(5050), item.UnitPrice)
	assert.Equal(t, "1", item.Quantity)
	assert.Equal(t, "contribution", item.Type)

	assert.Equal(t, postbackURL, req.PostbackURL)
	assert.False(t, req.Async)
	assert.Equal(t, paymentID, req.Metadata.PaymentID)
	require.NotNil(t, req.Metadata.SubscriptionID)
	assert.Equal(t, subscriptionID, *req.Metadata.SubscriptionID)
	assert.Equal(t, "2017-06-05T16:22:21.123456", req.Metadata.CatalogedAt)

	af := req.AntifraudMetadata
	assert.Equal(t, paymentID, af.SessionID)
	assert.Equal(t, "200.10.10.1", af.IP)
	assert.Equal(t, "web", af.Platform)
	assert.Equal(t, "2016-01-01T10:00:00", af.Register.RegisteredAt)
	assert.Equal(t, "111.111.111-11", af.Billing.Customer.DocumentNumber)
	assert.Equal(t, "222.222.222-22", af.Buyer.Customer.DocumentNumber)
	assert.Equal(t, "Centro", af.Shipping.Address.Neighborhood)
	assert.Len(t, af.Discounts, 1)
	assert.Len(t, af.OtherFees, 1)
}

func TestBuildChargeWithoutOwnerAddress(t *testing.T) {
	snap := newSnapshot()
	snap.ProjectOwner.Data.Address = nil

	req := BuildCharge(snap, postbackURL)

	assert.Equal(t, "Brasil", req.AntifraudMetadata.Events[0].Address.Country)
	assert.Empty(t, req.AntifraudMetadata.Events[0].Address.Street)
}

func TestBuildChargeIsDeterministic(t *testing.T) {
	snap := newSnapshot(withSubscription("active"), withSaveCard())

	first, err := json.Marshal(BuildCharge(snap, postbackURL))
	require.NoError(t, err)
	second, err := json.Marshal(BuildCharge(snap, postbackURL))
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}
