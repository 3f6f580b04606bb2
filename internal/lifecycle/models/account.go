package models

import (
	"time"

	id "custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
)

// Status is the lifecycle status of a company account.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// DeletionReason records why an account was soft-deleted.
type DeletionReason string

const (
	DeletionReasonInactivity  DeletionReason = "inactivity"
	DeletionReasonLowAccuracy DeletionReason = "low_accuracy"
	DeletionReasonManual      DeletionReason = "manual"
)

// Account is a company tenant's login and lifecycle record.
type Account struct {
	ID          id.AccountID
	Username    string
	CompanyName string
	Email       string

	LastLoginAt *time.Time
	CreatedAt   time.Time

	WarningsSent      int
	LastWarningSentAt *time.Time

	Status         Status
	DeletedAt      *time.Time
	DeletionReason DeletionReason
	UpdatedAt      time.Time
}

func (a *Account) IsDeleted() bool {
	return a.Status == StatusDeleted
}

// Validate checks the record-level invariants.
func (a *Account) Validate() error {
	if a.WarningsSent < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "warnings_sent cannot be negative")
	}
	if a.LastWarningSentAt != nil && a.WarningsSent == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "last_warning_sent_at requires warnings_sent > 0")
	}
	switch a.Status {
	case StatusActive, StatusSuspended, StatusDeleted:
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown account status "+string(a.Status))
	}
	return nil
}

// RecordWarning counts a delivered inactivity warning.
func (a *Account) RecordWarning(now time.Time) error {
	if a.IsDeleted() {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot warn a deleted account")
	}
	at := now.UTC()
	a.WarningsSent++
	a.LastWarningSentAt = &at
	a.UpdatedAt = at
	return nil
}

// MarkDeleted soft-deletes the account.
// Returns an error if the account is already deleted.
func (a *Account) MarkDeleted(reason DeletionReason, now time.Time) error {
	if a.IsDeleted() {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is already deleted")
	}
	at := now.UTC()
	a.Status = StatusDeleted
	a.DeletedAt = &at
	a.DeletionReason = reason
	a.UpdatedAt = at
	return nil
}

// ModelRecord is the trained-model state linked to an account.
type ModelRecord struct {
	AccountID           id.AccountID
	Accuracy            *float64
	AccuracyWarningSent bool
	LastAccuracyCheckAt *time.Time
}

// IsTrained reports whether an accuracy figure exists.
func (m *ModelRecord) IsTrained() bool {
	return m != nil && m.Accuracy != nil
}

// Validate checks the record-level invariants.
func (m *ModelRecord) Validate() error {
	if m.Accuracy != nil && (*m.Accuracy < 0 || *m.Accuracy > 1) {
		return dErrors.New(dErrors.CodeInvariantViolation, "model accuracy must be within [0, 1]")
	}
	if m.AccuracyWarningSent && m.LastAccuracyCheckAt == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "accuracy_warning_sent requires last_accuracy_check_at")
	}
	return nil
}

// MarkWarned records a delivered low-accuracy warning.
func (m *ModelRecord) MarkWarned(now time.Time) {
	at := now.UTC()
	m.AccuracyWarningSent = true
	m.LastAccuracyCheckAt = &at
}

// Candidate pairs an account with its model record as read from the store.
// Model is never nil; an untrained account has a record with nil Accuracy.
type Candidate struct {
	Account Account
	Model   ModelRecord
}
