package service

import (
	"context"
	"sort"
	"time"

	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/policy"
	dErrors "custodian/pkg/domain-errors"
)

// InactiveAccounts reports every account past the active window.
func (s *Service) InactiveAccounts(ctx context.Context) ([]models.AccountReport, error) {
	now := s.now().UTC()
	candidates, err := s.store.ListInactiveCandidates(ctx, classifier.InactiveCutoff(now))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list inactive accounts")
	}
	return s.reports(candidates, now), nil
}

// LowAccuracyAccounts reports every account whose trained model is below threshold.
func (s *Service) LowAccuracyAccounts(ctx context.Context) ([]models.AccountReport, error) {
	now := s.now().UTC()
	candidates, err := s.store.ListLowAccuracyCandidates(ctx, s.threshold)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list low accuracy accounts")
	}
	return s.reports(candidates, now), nil
}

// Preview classifies every candidate and lists what an automated run would
// do right now, without doing it.
func (s *Service) Preview(ctx context.Context) ([]models.AccountReport, error) {
	now := s.now().UTC()
	var scratch models.RunResult
	candidates, err := s.loadCandidates(ctx, now, &scratch)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read candidate accounts")
	}
	return s.reports(candidates, now), nil
}

func (s *Service) reports(candidates []*models.Candidate, now time.Time) []models.AccountReport {
	out := make([]models.AccountReport, 0, len(candidates))
	for _, c := range candidates {
		cls := classifier.Classify(c, now, s.threshold)
		report := models.AccountReport{
			AccountID:         c.Account.ID,
			Username:          c.Account.Username,
			CompanyName:       c.Account.CompanyName,
			Email:             c.Account.Email,
			Status:            c.Account.Status,
			DaysInactive:      cls.Inactivity.DaysInactive,
			InactivityLevel:   cls.Inactivity.Level,
			WarningsSent:      c.Account.WarningsSent,
			LastWarningSentAt: c.Account.LastWarningSentAt,
			Accuracy:          c.Model.Accuracy,
			AccuracyLevel:     cls.Accuracy.Level,
			AccuracyWarned:    c.Model.AccuracyWarningSent,
		}
		for _, a := range policy.Decide(c, cls, models.ModeAutomated, now, s.rules) {
			report.Pending = append(report.Pending, a.Kind)
		}
		out = append(out, report)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysInactive > out[j].DaysInactive
	})
	return out
}
