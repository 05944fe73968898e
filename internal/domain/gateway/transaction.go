package gateway

import (
	"encoding/json"
	"fmt"
)

// TransactionStatus is an open set; only the values this service branches on are named.
type TransactionStatus string

const (
	TransactionProcessing     TransactionStatus = "processing"
	TransactionWaitingPayment TransactionStatus = "waiting_payment"
	TransactionPaid           TransactionStatus = "paid"
	TransactionRefused        TransactionStatus = "refused"
)

// Pending reports whether the gateway has not reached a decision yet.
func (s TransactionStatus) Pending() bool {
	return s == TransactionProcessing || s == TransactionWaitingPayment
}

// Transaction is the gateway's view of one charge attempt. Raw keeps the
// response body verbatim so it can be cached without loss.
type Transaction struct {
	ID           int64
	Status       TransactionStatus
	RefuseReason string
	Card         json.RawMessage
	Raw          json.RawMessage
}

type transactionFields struct {
	ID           json.Number       `json:"id"`
	Status       TransactionStatus `json:"status"`
	RefuseReason string            `json:"refuse_reason"`
	Card         json.RawMessage   `json:"card"`
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var f transactionFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f.ID != "" {
		id, err := f.ID.Int64()
		if err != nil {
			return fmt.Errorf("gateway: transaction id %q: %w", f.ID, err)
		}
		t.ID = id
	}
	t.Status = f.Status
	t.RefuseReason = f.RefuseReason
	t.Card = nil
	if len(f.Card) > 0 && string(f.Card) != "null" {
		t.Card = f.Card
	}
	t.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	out := struct {
		ID           int64             `json:"id,omitempty"`
		Status       TransactionStatus `json:"status"`
		RefuseReason string            `json:"refuse_reason,omitempty"`
		Card         json.RawMessage   `json:"card,omitempty"`
	}{t.ID, t.Status, t.RefuseReason, t.Card}
	return json.Marshal(out)
}

// HasCard reports whether the gateway returned a tokenized card.
func (t Transaction) HasCard() bool { return len(t.Card) > 0 }

// Payable is a settlement record for a transaction. Raw keeps the gateway payload.
type Payable struct {
	ID          int64
	Status      string
	Amount      int64
	Fee         int64
	PaymentDate string
	Raw         json.RawMessage
}

type payableFields struct {
	ID          json.Number `json:"id"`
	Status      string      `json:"status"`
	Amount      int64       `json:"amount"`
	Fee         int64       `json:"fee"`
	PaymentDate string      `json:"payment_date"`
}

func (p *Payable) UnmarshalJSON(b []byte) error {
	var f payableFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	if f.ID != "" {
		id, err := f.ID.Int64()
		if err != nil {
			return fmt.Errorf("gateway: payable id %q: %w", f.ID, err)
		}
		p.ID = id
	}
	p.Status, p.Amount, p.Fee, p.PaymentDate = f.Status, f.Amount, f.Fee, f.PaymentDate
	p.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (p Payable) MarshalJSON() ([]byte, error) {
	if len(p.Raw) > 0 {
		return p.Raw, nil
	}
	return json.Marshal(payableFields{
		ID:          json.Number(fmt.Sprint(p.ID)),
		Status:      p.Status,
		Amount:      p.Amount,
		Fee:         p.Fee,
		PaymentDate: p.PaymentDate,
	})
}

// FieldError is one entry of a validation rejection.
type FieldError struct {
	Type          string `json:"type"`
	ParameterName string `json:"parameter_name"`
	Message       string `json:"message"`
}
