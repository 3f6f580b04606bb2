// Package policy decides which lifecycle actions apply to a classified account.
package policy

import (
	"time"

	"custodian/internal/lifecycle/models"
)

// Rules holds the grace windows that gate escalation to deletion.
type Rules struct {
	// DeletionGrace is the minimum time between the critical warning and an inactivity deletion.
	DeletionGrace time.Duration
	// AccuracyGrace is the minimum time between the low-accuracy warning and an accuracy deletion.
	AccuracyGrace time.Duration
}

// DefaultRules returns the production grace windows.
func DefaultRules() Rules {
	return Rules{
		DeletionGrace: 7 * 24 * time.Hour,
		AccuracyGrace: 30 * 24 * time.Hour,
	}
}

// Decide returns the actions for one account. Manual mode never acts.
//
// Inactivity warnings go out once per level: a warning recorded after the
// account entered its current level suppresses another. At critical the
// account is deleted once its latest warning, at any level, is at least
// DeletionGrace old; otherwise the final notice goes out unless it already
// went out at this level. When any axis leads to deletion, the set is
// reduced to that deletion (preceded by its notice when the accuracy axis caused it).
func Decide(c *models.Candidate, cls models.Classification, mode models.Mode, now time.Time, rules Rules) models.ActionSet {
	if !mode.IsAutomated() || c.Account.IsDeleted() {
		return nil
	}

	inactivity, deleteForInactivity := decideInactivity(&c.Account, cls.Inactivity, now, rules)
	if deleteForInactivity {
		return models.ActionSet{{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonInactivity}}
	}

	accuracy, deleteForAccuracy := decideAccuracy(&c.Model, cls.Accuracy, now, rules)
	if deleteForAccuracy {
		return accuracy
	}

	var set models.ActionSet
	set = append(set, inactivity...)
	set = append(set, accuracy...)
	return set
}

func decideInactivity(a *models.Account, cls models.Inactivity, now time.Time, rules Rules) (models.ActionSet, bool) {
	if cls.Level == models.InactivityActive {
		return nil, false
	}

	warnedThisLevel := a.LastWarningSentAt != nil && !a.LastWarningSentAt.Before(cls.EnteredAt)

	if cls.Level.IsWarning() {
		if warnedThisLevel {
			return nil, false
		}
		return models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: cls.Level}}, false
	}

	// critical: any prior warning that has aged past the grace window is enough.
	if a.LastWarningSentAt != nil && now.Sub(*a.LastWarningSentAt) >= rules.DeletionGrace {
		return nil, true
	}
	if warnedThisLevel {
		return nil, false
	}
	return models.ActionSet{{Kind: models.ActionSendInactivityWarning, Level: models.InactivityCritical}}, false
}

func decideAccuracy(m *models.ModelRecord, cls models.Accuracy, now time.Time, rules Rules) (models.ActionSet, bool) {
	if cls.Level != models.AccuracyLow {
		return nil, false
	}
	if !m.AccuracyWarningSent {
		return models.ActionSet{{Kind: models.ActionSendLowAccuracyWarning}}, false
	}
	if m.LastAccuracyCheckAt != nil && now.Sub(*m.LastAccuracyCheckAt) >= rules.AccuracyGrace {
		return models.ActionSet{
			{Kind: models.ActionSendAccuracyDeletion},
			{Kind: models.ActionDeleteAccount, Reason: models.DeletionReasonLowAccuracy},
		}, true
	}
	return nil, false
}
