package models

// ActionKind names a side effect the executor knows how to perform.
type ActionKind string

const (
	ActionSendInactivityWarning  ActionKind = "send_inactivity_warning"
	ActionSendLowAccuracyWarning ActionKind = "send_low_accuracy_warning"
	ActionSendAccuracyDeletion   ActionKind = "send_accuracy_deletion"
	ActionDeleteAccount          ActionKind = "delete_account"
)

// Action is one decided side effect.
type Action struct {
	Kind ActionKind
	// Level is set for inactivity warnings.
	Level InactivityLevel
	// Reason is set for deletions.
	Reason DeletionReason
}

// ActionSet is the ordered list of actions for one account.
type ActionSet []Action

// Has reports whether the set contains an action of the given kind.
func (s ActionSet) Has(kind ActionKind) bool {
	for _, a := range s {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Outcome is how an executed action ended.
type Outcome string

const (
	// OutcomeApplied means the notification went out and the state change committed.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyApplied means the state-conditioned update matched nothing;
	// another run or a repeat call got there first.
	OutcomeAlreadyApplied Outcome = "already_applied"
	// OutcomeNotifyFailed means delivery failed and no state was changed.
	OutcomeNotifyFailed Outcome = "notify_failed"
)
