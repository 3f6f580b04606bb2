package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/models"
)

var now = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func ptr(f float64) *float64 { return &f }

type accountOpt func(*models.Candidate)

func lastLogin(d time.Duration) accountOpt {
	return func(c *models.Candidate) { c.Account.LastLoginAt = ago(d) }
}

func warned(d time.Duration) accountOpt {
	return func(c *models.Candidate) {
		c.Account.WarningsSent++
		c.Account.LastWarningSentAt = ago(d)
	}
}

func accuracy(v float64) accountOpt {
	return func(c *models.Candidate) { c.Model.Accuracy = ptr(v) }
}

func accuracyWarned(d time.Duration) accountOpt {
	return func(c *models.Candidate) {
		c.Model.AccuracyWarningSent = true
		c.Model.LastAccuracyCheckAt = ago(d)
	}
}

func candidate(opts ...accountOpt) *models.Candidate {
	c := &models.Candidate{Account: models.Account{Status: models.StatusActive, CreatedAt: now.Add(-days(365))}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func decide(c *models.Candidate, mode models.Mode) models.ActionSet {
	cls := classifier.Classify(c, now, classifier.DefaultAccuracyThreshold)
	return Decide(c, cls, mode, now, DefaultRules())
}

func TestManualModeNeverActs(t *testing.T) {
	cases := []*models.Candidate{
		candidate(lastLogin(days(20))),
		candidate(lastLogin(days(100))),
		candidate(lastLogin(days(100)), warned(days(8))),
		candidate(lastLogin(days(1)), accuracy(0.3)),
		candidate(lastLogin(days(1)), accuracy(0.3), accuracyWarned(days(40))),
	}
	for _, c := range cases {
		assert.Empty(t, decide(c, models.ModeManual))
	}
}

func TestActiveAccountsNeverAct(t *testing.T) {
	for _, d := range []int{0, 7, 14} {
		for _, mode := range []models.Mode{models.ModeManual, models.ModeAutomated} {
			assert.Empty(t, decide(candidate(lastLogin(days(d))), mode), "days=%d mode=%s", d, mode)
		}
	}
}

func TestInactivityWarnings(t *testing.T) {
	t.Run("first warning at each level", func(t *testing.T) {
		for d, level := range map[int]models.InactivityLevel{
			20: models.InactivityWarning1,
			45: models.InactivityWarning2,
			75: models.InactivityWarning3,
		} {
			set := decide(candidate(lastLogin(days(d))), models.ModeAutomated)
			assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: level}}, set)
		}
	})

	t.Run("no repeat within the same level", func(t *testing.T) {
		// warning_2 entered 14 days ago (day 31 of 45); warned 2 days ago.
		set := decide(candidate(lastLogin(days(45)), warned(days(2))), models.ModeAutomated)
		assert.Empty(t, set)
	})

	t.Run("escalates when a new level is entered", func(t *testing.T) {
		// warned at day 20 (warning_1), now at day 45 (warning_2).
		set := decide(candidate(lastLogin(days(45)), warned(days(25))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityWarning2}}, set)
	})

	t.Run("warning from a previous inactivity episode does not count", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(20)), warned(days(40))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityWarning1}}, set)
	})
}

func TestCriticalTwoPhaseGate(t *testing.T) {
	t.Run("no prior warning sends the critical warning only", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(100))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityCritical}}, set)
		assert.False(t, set.Has(models.ActionDeleteAccount))
	})

	t.Run("aged warning from before critical deletes", func(t *testing.T) {
		// warned at day 80 (warning_3), critical since day 91.
		set := decide(candidate(lastLogin(days(100)), warned(days(20))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonInactivity}}, set)
	})

	t.Run("recent warning from before critical sends the final notice", func(t *testing.T) {
		// warned at day 89 (warning_3), critical since day 91, now day 93.
		set := decide(candidate(lastLogin(days(93)), warned(days(4))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityCritical}}, set)
	})

	t.Run("inside the grace window waits", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(100)), warned(days(6))), models.ModeAutomated)
		assert.Empty(t, set)
	})

	t.Run("grace elapsed deletes", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(100)), warned(days(8))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonInactivity}}, set)
	})

	t.Run("grace boundary is inclusive", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(100)), warned(days(7))), models.ModeAutomated)
		assert.True(t, set.Has(models.ActionDeleteAccount))
	})

	t.Run("never-active account is critical", func(t *testing.T) {
		c := candidate()
		c.Account.CreatedAt = time.Time{}
		set := decide(c, models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityCritical}}, set)
	})
}

func TestAccuracyPolicy(t *testing.T) {
	t.Run("low and not warned sends warning", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(1)), accuracy(0.5)), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionSendLowAccuracyWarning}}, set)
	})

	t.Run("untrained model is never low", func(t *testing.T) {
		assert.Empty(t, decide(candidate(lastLogin(days(1))), models.ModeAutomated))
	})

	t.Run("warned inside grace waits", func(t *testing.T) {
		assert.Empty(t, decide(candidate(lastLogin(days(1)), accuracy(0.5), accuracyWarned(days(29))), models.ModeAutomated))
	})

	t.Run("warned past grace sends notice and deletes", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(1)), accuracy(0.5), accuracyWarned(days(30))), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{
			{Kind: models.ActionSendAccuracyDeletion},
			{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonLowAccuracy},
		}, set)
	})

	t.Run("retrained above threshold stops escalation", func(t *testing.T) {
		assert.Empty(t, decide(candidate(lastLogin(days(1)), accuracy(0.8), accuracyWarned(days(40))), models.ModeAutomated))
	})
}

func TestCombinedAxes(t *testing.T) {
	t.Run("both warnings are emitted in order", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(20)), accuracy(0.5)), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{
			{Kind: models.ActionSendInactivityWarning, Level: models.InactivityWarning1},
			{Kind: models.ActionSendLowAccuracyWarning},
		}, set)
	})

	t.Run("inactivity deletion dominates accuracy warning", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(100)), warned(days(8)), accuracy(0.5)), models.ModeAutomated)
		assert.Equal(t, models.ActionSet{{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonInactivity}}, set)
	})

	t.Run("accuracy deletion dominates inactivity warning", func(t *testing.T) {
		set := decide(candidate(lastLogin(days(20)), accuracy(0.5), accuracyWarned(days(31))), models.ModeAutomated)
		assert.False(t, set.Has(models.ActionSendInactivityWarning))
		assert.True(t, set.Has(models.ActionDeleteAccount))
	})

	t.Run("deleted account is ignored", func(t *testing.T) {
		c := candidate(lastLogin(days(100)), warned(days(8)))
		c.Account.Status = models.StatusDeleted
		assert.Empty(t, decide(c, models.ModeAutomated))
	})
}
