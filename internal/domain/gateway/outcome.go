package gateway

import (
	"context"
	"encoding/json"
)

// Outcome is the result of submitting a charge: Charged, Declined or Rejected.
type Outcome interface {
	outcome()
}

// Charged means the gateway opened a transaction; Payables may be empty.
type Charged struct {
	Transaction Transaction
	Payables    []Payable
}

// Declined means the gateway answered without assigning a transaction id.
type Declined struct {
	Transaction Transaction
}

// Rejected means the gateway refused the request as invalid.
type Rejected struct {
	Errors []FieldError
}

func (Charged) outcome()  {}
func (Declined) outcome() {}
func (Rejected) outcome() {}

// CachedData is the document persisted as the payment's gateway cache.
type CachedData struct {
	Transaction Transaction `json:"transaction"`
	Payables    []Payable   `json:"payables"`
}

func (c Charged) CachedData() ([]byte, error) {
	payables := c.Payables
	if payables == nil {
		payables = []Payable{}
	}
	return json.Marshal(CachedData{Transaction: c.Transaction, Payables: payables})
}

func (r Rejected) CachedData() ([]byte, error) {
	errs := r.Errors
	if errs == nil {
		errs = []FieldError{}
	}
	return json.Marshal(errs)
}

// Client submits charges to a payment gateway. Transport and unexpected
// failures are returned as errors; validation rejections are an Outcome.
type Client interface {
	Charge(ctx context.Context, req ChargeRequest) (Outcome, error)
}
