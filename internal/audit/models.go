package audit

import "time"

// Event is emitted from lifecycle logic to capture every mutation and
// notification. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	AccountID string            `json:"account_id,omitempty"`
	Actor     string            `json:"actor"`
	Action    Action            `json:"action"`
	Reason    string            `json:"reason,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}

type Action string

const (
	ActionInactivityWarningSent  Action = "inactivity_warning_sent"
	ActionAccuracyWarningSent    Action = "accuracy_warning_sent"
	ActionAccuracyDeletionSent   Action = "accuracy_deletion_notice_sent"
	ActionAccountDeleted         Action = "account_deleted"
	ActionAutomationModeChanged  Action = "automation_mode_changed"
	ActionAutomationRunCompleted Action = "automation_run_completed"
)

// ActorSystem is recorded for actions taken by the scheduled run.
const ActorSystem = "system"

// AggregateType returns the outbox aggregate the event belongs to.
func (e Event) AggregateType() string {
	if e.AccountID != "" {
		return "account"
	}
	return "automation"
}

func (e Event) AggregateID() string {
	if e.AccountID != "" {
		return e.AccountID
	}
	return "automation"
}
