// Package events publishes ledger change notifications to interested consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"financeflow/internal/core"
)

// Type names a ledger change.
type Type string

const (
	TransactionAdded   Type = "transaction.added"
	TransactionUpdated Type = "transaction.updated"
	TransactionRemoved Type = "transaction.removed"
)

// Event is a lightweight change notification. Consumers that need the full record
// read it back from the ledger by TransactionID.
type Event struct {
	Type          Type      `json:"type"`
	TransactionID string    `json:"transaction_id"`
	Kind          core.Kind `json:"kind,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Date          string    `json:"date,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers events. Implementations must not retain the event after returning.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NewEvent describes a change to tx.
func NewEvent(t Type, tx core.Transaction, at time.Time) Event {
	return Event{
		Type:          t,
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		AmountCents:   tx.Amount.Cents,
		Category:      tx.Category,
		Date:          tx.Date.String(),
		OccurredAt:    at.UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
