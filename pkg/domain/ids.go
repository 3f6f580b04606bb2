// Package domain provides type-safe identifiers shared across packages.
package domain

import (
	"github.com/google/uuid"

	dErrors "custodian/pkg/domain-errors"
)

// Distinct ID types so an account id cannot be passed where an event id is expected.
type (
	AccountID uuid.UUID
	EventID   uuid.UUID
)

// NewAccountID returns a random account identifier.
func NewAccountID() AccountID { return AccountID(uuid.New()) }

// NewEventID returns a random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// ParseAccountID is used at trust boundaries (path params, request bodies).
func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseEventID(s string) (EventID, error) {
	id, err := parseUUID(s, "event ID")
	return EventID(id), err
}

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string   { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets account ids appear as plain strings in JSON payloads.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText accepts the canonical UUID form.
func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// parseUUID rejects empty and malformed input. Nil UUIDs parse successfully;
// services reject them with IsNil so lookups stay consistent with not-found.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	return id, nil
}
