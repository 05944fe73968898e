package payment

import (
	"encoding/json"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusProcessing     Status = "processing"
	StatusWaitingPayment Status = "waiting_payment"
	StatusPaid           Status = "paid"
	StatusRefused        Status = "refused"
	StatusError          Status = "error"
)

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodBoleto     Method = "boleto"
)

// Payment is a catalog payment as stored by the payment service.
type Payment struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	ProjectID      string  `json:"project_id"`
	PlatformID     string  `json:"platform_id"`
	SubscriptionID *string `json:"subscription_id"`
	Status         Status  `json:"status"`
	Data           Data    `json:"data"`
	// Gateway payloads are opaque to this service.
	GatewayCachedData  json.RawMessage `json:"gateway_cached_data,omitempty"`
	GatewayGeneralData json.RawMessage `json:"gateway_general_data,omitempty"`
	// CreatedAt is kept in the store's textual form.
	CreatedAt string `json:"created_at"`
}

// Data is what the checkout collected for the charge.
type Data struct {
	Amount                  int64    `json:"amount"`
	PaymentMethod           Method   `json:"payment_method"`
	Customer                Customer `json:"customer"`
	CardHash                string   `json:"card_hash,omitempty"`
	CardID                  string   `json:"card_id,omitempty"`
	SaveCard                bool     `json:"save_card"`
	CurrentIP               string   `json:"current_ip"`
	CreditCardOwnerDocument string   `json:"credit_card_owner_document"`
}

type Customer struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	DocumentNumber string  `json:"document_number"`
	Address        Address `json:"address"`
	Phone          Phone   `json:"phone"`
}

type Address struct {
	Street        string `json:"street"`
	StreetNumber  string `json:"street_number"`
	Neighborhood  string `json:"neighborhood"`
	Zipcode       string `json:"zipcode"`
	Country       string `json:"country"`
	State         string `json:"state"`
	City          string `json:"city"`
	Complementary string `json:"complementary"`
}

type Phone struct {
	DDI    string `json:"ddi"`
	DDD    string `json:"ddd"`
	Number string `json:"number"`
}

// HasSubscription reports whether the payment belongs to a recurring plan.
func (p *Payment) HasSubscription() bool {
	return p.SubscriptionID != nil && *p.SubscriptionID != ""
}

// SubscriptionRef returns the subscription id or "" when there is none.
func (p *Payment) SubscriptionRef() string {
	if !p.HasSubscription() {
		return ""
	}
	return *p.SubscriptionID
}
