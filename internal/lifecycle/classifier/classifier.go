// Package classifier tags accounts on the inactivity and accuracy axes.
// Everything here is a pure function of its inputs.
package classifier

import (
	"time"

	"custodian/internal/lifecycle/models"
)

// Inactivity bands, in whole days since the reference time. Upper bounds are inclusive.
const (
	ActiveMaxDays   = 14
	Warning1MaxDays = 30
	Warning2MaxDays = 60
	Warning3MaxDays = 90

	// NeverActiveDays is reported when an account has neither a login nor a creation time.
	NeverActiveDays = 999

	DefaultAccuracyThreshold = 0.65
)

const day = 24 * time.Hour

// ClassifyInactivity measures days since the last login, falling back to the
// creation time. Missing both classifies as critical rather than skipping the account.
func ClassifyInactivity(lastLoginAt *time.Time, createdAt time.Time, now time.Time) models.Inactivity {
	var ref time.Time
	switch {
	case lastLoginAt != nil && !lastLoginAt.IsZero():
		ref = lastLoginAt.UTC()
	case !createdAt.IsZero():
		ref = createdAt.UTC()
	default:
		return models.Inactivity{Level: models.InactivityCritical, DaysInactive: NeverActiveDays}
	}

	elapsed := now.UTC().Sub(ref)
	if elapsed < 0 {
		elapsed = 0
	}
	days := int(elapsed / day)
	level := LevelForDays(days)

	out := models.Inactivity{
		Level:        level,
		DaysInactive: days,
		Reference:    &ref,
	}
	if first, ok := firstDay(level); ok {
		out.EnteredAt = ref.Add(time.Duration(first) * day)
	}
	return out
}

// LevelForDays maps a day count onto its band.
func LevelForDays(days int) models.InactivityLevel {
	switch {
	case days <= ActiveMaxDays:
		return models.InactivityActive
	case days <= Warning1MaxDays:
		return models.InactivityWarning1
	case days <= Warning2MaxDays:
		return models.InactivityWarning2
	case days <= Warning3MaxDays:
		return models.InactivityWarning3
	default:
		return models.InactivityCritical
	}
}

// InactiveCutoff is the latest reference time that still counts as inactive at now.
func InactiveCutoff(now time.Time) time.Time {
	return now.UTC().Add(-(ActiveMaxDays + 1) * day)
}

func firstDay(level models.InactivityLevel) (int, bool) {
	switch level {
	case models.InactivityWarning1:
		return ActiveMaxDays + 1, true
	case models.InactivityWarning2:
		return Warning1MaxDays + 1, true
	case models.InactivityWarning3:
		return Warning2MaxDays + 1, true
	case models.InactivityCritical:
		return Warning3MaxDays + 1, true
	default:
		return 0, false
	}
}

// ClassifyAccuracy is low only for a trained model strictly below threshold.
func ClassifyAccuracy(accuracy *float64, threshold float64) models.Accuracy {
	out := models.Accuracy{Level: models.AccuracyOK, Value: accuracy, Threshold: threshold}
	if accuracy != nil && *accuracy < threshold {
		out.Level = models.AccuracyLow
	}
	return out
}

// Classify tags both axes for a candidate.
func Classify(c *models.Candidate, now time.Time, threshold float64) models.Classification {
	return models.Classification{
		Inactivity: ClassifyInactivity(c.Account.LastLoginAt, c.Account.CreatedAt, now),
		Accuracy:   ClassifyAccuracy(c.Model.Accuracy, threshold),
	}
}
