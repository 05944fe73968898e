package creditcard

import "encoding/json"

// GatewayPagarme names the gateway that tokenized the card.
const GatewayPagarme = "pagarme"

// CreditCard is a reusable reference to a gateway-tokenized card.
type CreditCard struct {
	ID          string          `json:"id"`
	PlatformID  string          `json:"platform_id"`
	UserID      string          `json:"user_id"`
	Gateway     string          `json:"gateway"`
	GatewayData json.RawMessage `json:"gateway_data"`
	CreatedAt   string          `json:"created_at"`
}

// New describes a card reference that has not been persisted yet.
type New struct {
	PlatformID  string
	UserID      string
	Gateway     string
	GatewayData json.RawMessage
}
