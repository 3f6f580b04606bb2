package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"custodian/internal/lifecycle/models"
	id "custodian/pkg/domain"
)

// Now is the fixed clock most lifecycle tests run against.
var Now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// DaysAgo returns a pointer to the instant n whole days before Now.
func DaysAgo(n int) *time.Time {
	t := Now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

// AccountBuilder provides a fluent interface for building test accounts
// together with their model record.
type AccountBuilder struct {
	c *models.Candidate
}

// NewAccountBuilder creates an active, recently seen, untrained account.
func NewAccountBuilder() *AccountBuilder {
	accountID := id.AccountID(uuid.New())
	short := accountID.String()[:8]
	return &AccountBuilder{
		c: &models.Candidate{
			Account: models.Account{
				ID:          accountID,
				Username:    "company-" + short,
				CompanyName: fmt.Sprintf("Company %s", short),
				Email:       "hr-" + short + "@example.com",
				LastLoginAt: DaysAgo(1),
				CreatedAt:   *DaysAgo(400),
				Status:      models.StatusActive,
				UpdatedAt:   Now,
			},
			Model: models.ModelRecord{AccountID: accountID},
		},
	}
}

func (b *AccountBuilder) WithID(accountID id.AccountID) *AccountBuilder {
	b.c.Account.ID = accountID
	b.c.Model.AccountID = accountID
	return b
}

func (b *AccountBuilder) WithEmail(email string) *AccountBuilder {
	b.c.Account.Email = email
	return b
}

// InactiveFor sets the last login n days before Now.
func (b *AccountBuilder) InactiveFor(days int) *AccountBuilder {
	b.c.Account.LastLoginAt = DaysAgo(days)
	return b
}

// NeverLoggedIn clears the last login and sets the creation time n days before Now.
func (b *AccountBuilder) NeverLoggedIn(createdDaysAgo int) *AccountBuilder {
	b.c.Account.LastLoginAt = nil
	b.c.Account.CreatedAt = *DaysAgo(createdDaysAgo)
	return b
}

// Warned records n inactivity warnings, the last one at the given instant.
func (b *AccountBuilder) Warned(n int, last time.Time) *AccountBuilder {
	b.c.Account.WarningsSent = n
	at := last.UTC()
	b.c.Account.LastWarningSentAt = &at
	return b
}

func (b *AccountBuilder) WithAccuracy(accuracy float64) *AccountBuilder {
	b.c.Model.Accuracy = &accuracy
	return b
}

// AccuracyWarned marks the low-accuracy warning as sent at the given instant.
func (b *AccountBuilder) AccuracyWarned(at time.Time) *AccountBuilder {
	t := at.UTC()
	b.c.Model.AccuracyWarningSent = true
	b.c.Model.LastAccuracyCheckAt = &t
	return b
}

func (b *AccountBuilder) WithStatus(status models.Status) *AccountBuilder {
	b.c.Account.Status = status
	return b
}

func (b *AccountBuilder) Deleted(reason models.DeletionReason, at time.Time) *AccountBuilder {
	t := at.UTC()
	b.c.Account.Status = models.StatusDeleted
	b.c.Account.DeletedAt = &t
	b.c.Account.DeletionReason = reason
	return b
}

func (b *AccountBuilder) Build() *models.Candidate {
	return b.c
}
