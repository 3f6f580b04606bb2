package models

import (
	"time"

	id "custodian/pkg/domain"
)

// RunResult summarizes one automation run. It is returned to the caller and never persisted.
type RunResult struct {
	Mode       Mode      `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	InactiveFound    int `json:"inactive_found"`
	LowAccuracyFound int `json:"low_accuracy_found"`
	Processed        int `json:"processed"`

	WarningsSent        int `json:"warnings_sent"`
	InactivityWarnings  int `json:"inactivity_warnings"`
	AccuracyWarnings    int `json:"accuracy_warnings"`
	AccountsDeleted     int `json:"accounts_deleted"`
	NotificationsFailed int `json:"notifications_failed"`

	Failures []Failure `json:"failures,omitempty"`
	// Error is set when the run aborted before processing every candidate.
	Error string `json:"error,omitempty"`
}

// Failure is one per-account error recorded without aborting the run.
type Failure struct {
	AccountID id.AccountID `json:"account_id"`
	Action    ActionKind   `json:"action,omitempty"`
	Message   string       `json:"message"`
}

// AccountReport is the display view of one classified account.
type AccountReport struct {
	AccountID         id.AccountID    `json:"account_id"`
	Username          string          `json:"username"`
	CompanyName       string          `json:"company_name"`
	Email             string          `json:"email"`
	Status            Status          `json:"status"`
	DaysInactive      int             `json:"days_inactive"`
	InactivityLevel   InactivityLevel `json:"inactivity_level"`
	WarningsSent      int             `json:"warnings_sent"`
	LastWarningSentAt *time.Time      `json:"last_warning_sent_at,omitempty"`
	Accuracy          *float64        `json:"model_accuracy,omitempty"`
	AccuracyLevel     AccuracyLevel   `json:"accuracy_level"`
	AccuracyWarned    bool            `json:"accuracy_warning_sent"`
	// Pending lists what an automated run would do right now.
	Pending []ActionKind `json:"pending_actions,omitempty"`
}

// ActionReport is returned by the manual per-account endpoints.
type ActionReport struct {
	AccountID id.AccountID `json:"account_id"`
	Action    ActionKind   `json:"action"`
	Outcome   Outcome      `json:"outcome"`
}
