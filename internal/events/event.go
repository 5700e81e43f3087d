// Package events publishes ledger change notifications to interested
// consumers. Publishing is best effort: the ledger never waits on it.
package events

import (
	"encoding/json"
	"time"

	"moneyflow/internal/uuid"
)

// Type is the routing key of an event.
type Type string

const (
	AccountCreated     Type = "account.created"
	AccountUpdated     Type = "account.updated"
	AccountDeleted     Type = "account.deleted"
	CategoryCreated    Type = "category.created"
	CategoryUpdated    Type = "category.updated"
	CategoryDeleted    Type = "category.deleted"
	TransactionCreated Type = "transaction.created"
	TransactionUpdated Type = "transaction.updated"
	TransactionDeleted Type = "transaction.deleted"
	TransferCreated    Type = "transfer.created"
)

// Event describes one committed mutation.
type Event struct {
	ID           string          `json:"id"`
	Type         Type            `json:"type"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Changes      json.RawMessage `json:"changes,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, resourceType, resourceID string, changes json.RawMessage) Event {
	return Event{
		ID:           uuid.New(),
		Type:         t,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OccurredAt:   time.Now().UTC(),
		Changes:      changes,
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
