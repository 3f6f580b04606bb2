package models

import "time"

// InactivityLevel tags how long an account has gone without activity.
type InactivityLevel string

const (
	InactivityActive   InactivityLevel = "active"
	InactivityWarning1 InactivityLevel = "warning_1"
	InactivityWarning2 InactivityLevel = "warning_2"
	InactivityWarning3 InactivityLevel = "warning_3"
	InactivityCritical InactivityLevel = "critical"
)

// IsWarning reports whether the level calls for a pre-critical warning.
func (l InactivityLevel) IsWarning() bool {
	return l == InactivityWarning1 || l == InactivityWarning2 || l == InactivityWarning3
}

// Inactivity is the classification on the inactivity axis.
type Inactivity struct {
	Level        InactivityLevel
	DaysInactive int
	// Reference is the instant inactivity is measured from; nil when the
	// account has neither a login nor a creation time.
	Reference *time.Time
	// EnteredAt is when the account crossed into Level. Zero for active
	// accounts and for accounts without a reference.
	EnteredAt time.Time
}

// AccuracyLevel tags the trained model's quality.
type AccuracyLevel string

const (
	AccuracyOK  AccuracyLevel = "ok"
	AccuracyLow AccuracyLevel = "low"
)

// Accuracy is the classification on the accuracy axis.
type Accuracy struct {
	Level     AccuracyLevel
	Value     *float64
	Threshold float64
}

// Classification holds both axes for one account.
type Classification struct {
	Inactivity Inactivity
	Accuracy   Accuracy
}
