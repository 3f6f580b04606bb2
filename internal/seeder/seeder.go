// Package seeder fills an empty in-memory deployment with demo accounts that
// cover every inactivity band and both accuracy outcomes.
package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"custodian/internal/lifecycle/models"
	id "custodian/pkg/domain"
)

// AccountStore defines methods for seeding accounts.
type AccountStore interface {
	Save(ctx context.Context, c *models.Candidate) error
}

// Seeder populates the account store with demo data.
type Seeder struct {
	accounts AccountStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new seeder.
func New(accounts AccountStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		accounts: accounts,
		logger:   logger,
		now:      time.Now,
	}
}

type demoAccount struct {
	company      string
	daysInactive int
	neverLogged  bool
	accuracy     *float64
	warnings     int
	warnedDays   int
}

func accuracy(v float64) *float64 { return &v }

var demoAccounts = []demoAccount{
	{company: "Acme Analytics", daysInactive: 2, accuracy: accuracy(0.91)},
	{company: "Brightside Hiring", daysInactive: 20},
	{company: "Copperleaf Talent", daysInactive: 45, warnings: 1, warnedDays: 20},
	{company: "Dunmore Staffing", daysInactive: 75, warnings: 2, warnedDays: 30},
	{company: "Evergreen Recruiting", daysInactive: 120, warnings: 3, warnedDays: 10},
	{company: "Foxglove People", daysInactive: 5, accuracy: accuracy(0.52)},
	{company: "Granite Partners", daysInactive: 40, neverLogged: true},
	{company: "Harbor Labs", daysInactive: 1, accuracy: accuracy(0.65)},
}

// SeedAll saves every demo account and returns how many were written.
func (s *Seeder) SeedAll(ctx context.Context) (int, error) {
	s.logger.Info("seeding demo accounts...")

	now := s.now().UTC()
	for i, d := range demoAccounts {
		c := d.build(now, i)
		if err := s.accounts.Save(ctx, c); err != nil {
			return i, fmt.Errorf("failed to seed %s: %w", d.company, err)
		}
	}

	s.logger.Info("demo accounts seeded successfully", "accounts", len(demoAccounts))
	return len(demoAccounts), nil
}

func (d demoAccount) build(now time.Time, n int) *models.Candidate {
	daysAgo := func(days int) *time.Time {
		t := now.Add(-time.Duration(days) * 24 * time.Hour)
		return &t
	}
	accountID := id.NewAccountID()
	c := &models.Candidate{
		Account: models.Account{
			ID:          accountID,
			Username:    fmt.Sprintf("demo-%02d", n+1),
			CompanyName: d.company,
			Email:       fmt.Sprintf("hr+demo%02d@example.com", n+1),
			LastLoginAt: daysAgo(d.daysInactive),
			CreatedAt:   *daysAgo(365),
			Status:      models.StatusActive,
			UpdatedAt:   now,
		},
		Model: models.ModelRecord{AccountID: accountID, Accuracy: d.accuracy},
	}
	if d.neverLogged {
		c.Account.LastLoginAt = nil
		c.Account.CreatedAt = *daysAgo(d.daysInactive)
	}
	if d.warnings > 0 {
		c.Account.WarningsSent = d.warnings
		c.Account.LastWarningSentAt = daysAgo(d.warnedDays)
	}
	return c
}
