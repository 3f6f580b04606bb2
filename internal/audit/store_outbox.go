package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"custodian/internal/audit/outbox"
)

// OutboxStore turns audit events into outbox entries so they reach Kafka.
type OutboxStore struct {
	outbox outbox.Appender
}

func NewOutboxStore(appender outbox.Appender) *OutboxStore {
	return &OutboxStore{outbox: appender}
}

func (s *OutboxStore) Append(ctx context.Context, event Event) error {
	entry, err := NewOutboxEntry(event)
	if err != nil {
		return err
	}
	return s.outbox.Append(ctx, entry)
}

// NewOutboxEntry encodes event as an outbox entry. Callers that need the event
// to commit with a state change append the entry inside their transaction.
func NewOutboxEntry(event Event) (*outbox.Entry, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode audit event: %w", err)
	}
	return outbox.NewEntry(event.AggregateType(), event.AggregateID(), string(event.Action), payload, event.Timestamp), nil
}
