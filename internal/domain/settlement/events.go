package settlement

import "time"

// Outcome names how a settlement run ended.
type Outcome string

const (
	OutcomeCharged  Outcome = "charged"
	OutcomeDeclined Outcome = "declined"
	OutcomeRejected Outcome = "rejected"
	OutcomeNotFound Outcome = "not_found"
	OutcomeLocked   Outcome = "locked"
)

// PaymentSettledEvent is emitted after a run persisted a gateway answer.
type PaymentSettledEvent struct {
	PaymentID          string    `json:"payment_id"`
	SubscriptionID     string    `json:"subscription_id,omitempty"`
	Outcome            Outcome   `json:"outcome"`
	TransactionID      int64     `json:"transaction_id,omitempty"`
	TransactionStatus  string    `json:"transaction_status,omitempty"`
	PaymentStatus      string    `json:"payment_status,omitempty"`
	SubscriptionStatus string    `json:"subscription_status,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

func (PaymentSettledEvent) EventName() string { return "payment.settled" }

func (e PaymentSettledEvent) EventKey() string { return e.PaymentID }
