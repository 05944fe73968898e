package subscription

type Status string

const (
	StatusStarted   Status = "started"
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusCanceling Status = "canceling"
	StatusCanceled  Status = "canceled"
	StatusError     Status = "error"
)

// Subscription is the recurring plan a payment may belong to.
type Subscription struct {
	ID           string  `json:"id"`
	Status       Status  `json:"status"`
	CreditCardID *string `json:"credit_card_id"`
}
