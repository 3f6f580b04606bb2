// Package outbox implements the transactional outbox that relays lifecycle
// events to Kafka after the state change that produced them commits.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one pending event in the outbox table.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // "account", "automation"
	AggregateID   string
	EventType     string
	Payload       []byte // JSON-encoded audit.Event
	CreatedAt     time.Time
	ProcessedAt   *time.Time // nil = pending
}

// IsPending returns true if this entry has not been published yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte, now time.Time) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now.UTC(),
	}
}
