package service

import (
	"context"

	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/models"
	id "custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
)

// The manual actions bypass the policy and ignore the automation mode.
// They still go through the executor, so repeating one is harmless.

// WarnInactive sends the inactivity warning matching the account's current
// level. An account that is still active gets the first-level warning.
func (s *Service) WarnInactive(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error) {
	c, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	inactivity := classifier.ClassifyInactivity(c.Account.LastLoginAt, c.Account.CreatedAt, s.now())
	if inactivity.Level == models.InactivityActive {
		inactivity.Level = models.InactivityWarning1
	}
	outcome, err := s.executor.SendInactivityWarning(ctx, c, inactivity)
	return s.report(accountID, models.ActionSendInactivityWarning, outcome, err)
}

// WarnLowAccuracy sends the low-accuracy warning. The account must have a trained model.
func (s *Service) WarnLowAccuracy(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error) {
	c, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !c.Model.IsTrained() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account has no trained model")
	}
	outcome, err := s.executor.SendLowAccuracyWarning(ctx, c)
	return s.report(accountID, models.ActionSendLowAccuracyWarning, outcome, err)
}

// DeleteAccount soft-deletes the account on an administrator's behalf.
func (s *Service) DeleteAccount(ctx context.Context, accountID id.AccountID) (*models.ActionReport, error) {
	c, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	inactivity := classifier.ClassifyInactivity(c.Account.LastLoginAt, c.Account.CreatedAt, s.now())
	outcome, err := s.executor.DeleteAccount(ctx, c, models.DeletionReasonManual, inactivity.DaysInactive)
	return s.report(accountID, models.ActionDeleteAccount, outcome, err)
}

func (s *Service) report(accountID id.AccountID, action models.ActionKind, outcome models.Outcome, err error) (*models.ActionReport, error) {
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+string(action))
	}
	if outcome == models.OutcomeNotifyFailed {
		return nil, dErrors.New(dErrors.CodeUnavailable, "notification could not be delivered, nothing was changed")
	}
	return &models.ActionReport{AccountID: accountID, Action: action, Outcome: outcome}, nil
}
