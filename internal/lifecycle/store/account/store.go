// Package account persists company accounts and their model records.
package account

import (
	"context"
	"time"

	"custodian/internal/audit/outbox"
	"custodian/internal/lifecycle/models"
	id "custodian/pkg/domain"
)

// Tx is the mutation surface available inside RunInTx. Everything done
// through it commits or rolls back together.
type Tx interface {
	// SoftDelete marks the account deleted. It reports false when the account
	// was already deleted.
	SoftDelete(ctx context.Context, accountID id.AccountID, reason models.DeletionReason, at time.Time) (bool, error)
	AppendOutbox(ctx context.Context, entry *outbox.Entry) error
}

func clone(c *models.Candidate) *models.Candidate {
	out := *c
	out.Account.LastLoginAt = cloneTime(c.Account.LastLoginAt)
	out.Account.LastWarningSentAt = cloneTime(c.Account.LastWarningSentAt)
	out.Account.DeletedAt = cloneTime(c.Account.DeletedAt)
	out.Model.LastAccuracyCheckAt = cloneTime(c.Model.LastAccuracyCheckAt)
	if c.Model.Accuracy != nil {
		v := *c.Model.Accuracy
		out.Model.Accuracy = &v
	}
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// inactivityReference mirrors the classifier's fallback from last login to creation time.
func inactivityReference(a *models.Account) (time.Time, bool) {
	if a.LastLoginAt != nil && !a.LastLoginAt.IsZero() {
		return *a.LastLoginAt, true
	}
	if !a.CreatedAt.IsZero() {
		return a.CreatedAt, true
	}
	return time.Time{}, false
}
