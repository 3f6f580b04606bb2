// Package service orchestrates automation runs and the manual per-account
// actions exposed to administrators.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"custodian/internal/audit"
	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/metrics"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/policy"
	"custodian/internal/sentinel"
	id "custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/middleware/admin"
)

// AccountStore is the read side of the account store.
type AccountStore interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Candidate, error)
	ListInactiveCandidates(ctx context.Context, cutoff time.Time) ([]*models.Candidate, error)
	ListLowAccuracyCandidates(ctx context.Context, threshold float64) ([]*models.Candidate, error)
}

// Executor performs one lifecycle action for one account.
type Executor interface {
	SendInactivityWarning(ctx context.Context, c *models.Candidate, inactivity models.Inactivity) (models.Outcome, error)
	SendLowAccuracyWarning(ctx context.Context, c *models.Candidate) (models.Outcome, error)
	SendAccuracyDeletionNotice(ctx context.Context, c *models.Candidate) (models.Outcome, error)
	DeleteAccount(ctx context.Context, c *models.Candidate, reason models.DeletionReason, daysInactive int) (models.Outcome, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store     AccountStore
	executor  Executor
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	rules     policy.Rules
	threshold float64
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithRules(rules policy.Rules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

// WithAccuracyThreshold sets the accuracy below which a trained model is low.
func WithAccuracyThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.threshold = threshold
		}
	}
}

func New(store AccountStore, executor Executor, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		executor:  executor,
		auditor:   auditor,
		logger:    slog.Default(),
		tracer:    otel.Tracer("custodian/lifecycle"),
		now:       time.Now,
		rules:     policy.DefaultRules(),
		threshold: classifier.DefaultAccuracyThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run classifies every candidate account and, in automated mode, executes
// the decided actions. Accounts are processed one at a time; a failure in
// one account is recorded and the run moves on. A failed candidate read
// aborts the run: the partial result is returned along with the error.
func (s *Service) Run(ctx context.Context, mode models.Mode) (*models.RunResult, error) {
	mode = models.NormalizeMode(string(mode))
	ctx, span := s.tracer.Start(ctx, "lifecycle.run", trace.WithAttributes(attribute.String("mode", mode.String())))
	defer span.End()

	now := s.now().UTC()
	result := &models.RunResult{Mode: mode, StartedAt: now}

	candidates, err := s.loadCandidates(ctx, now, result)
	if err != nil {
		result.Error = err.Error()
		result.FinishedAt = s.now().UTC()
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate read failed")
		s.observe(result, "error")
		s.logger.ErrorContext(ctx, "automation run aborted", "mode", mode, "error", err)
		return result, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read candidate accounts")
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			break
		}
		s.processAccount(ctx, c, mode, now, result)
	}

	result.FinishedAt = s.now().UTC()
	span.SetAttributes(
		attribute.Int("processed", result.Processed),
		attribute.Int("warnings_sent", result.WarningsSent),
		attribute.Int("accounts_deleted", result.AccountsDeleted),
	)
	status := "ok"
	if result.Error != "" {
		status = "error"
	} else if len(result.Failures) > 0 {
		status = "partial"
	}
	s.observe(result, status)

	s.logger.InfoContext(ctx, "automation run completed",
		"mode", mode,
		"processed", result.Processed,
		"warnings_sent", result.WarningsSent,
		"accounts_deleted", result.AccountsDeleted,
		"notifications_failed", result.NotificationsFailed,
		"failures", len(result.Failures),
	)
	s.emit(ctx, audit.Event{
		Action: audit.ActionAutomationRunCompleted,
		Detail: map[string]string{
			"mode":             mode.String(),
			"processed":        strconv.Itoa(result.Processed),
			"warnings_sent":    strconv.Itoa(result.WarningsSent),
			"accounts_deleted": strconv.Itoa(result.AccountsDeleted),
		},
	})
	if result.Error != "" {
		return result, dErrors.New(dErrors.CodeTimeout, "automation run interrupted: "+result.Error)
	}
	return result, nil
}

// loadCandidates unions both candidate sets so each account is handled once
// with both axes in view.
func (s *Service) loadCandidates(ctx context.Context, now time.Time, result *models.RunResult) ([]*models.Candidate, error) {
	inactive, err := s.store.ListInactiveCandidates(ctx, classifier.InactiveCutoff(now))
	if err != nil {
		return nil, fmt.Errorf("list inactive candidates: %w", err)
	}
	lowAccuracy, err := s.store.ListLowAccuracyCandidates(ctx, s.threshold)
	if err != nil {
		return nil, fmt.Errorf("list low accuracy candidates: %w", err)
	}
	result.InactiveFound = len(inactive)
	result.LowAccuracyFound = len(lowAccuracy)
	if s.metrics != nil {
		s.metrics.AddCandidates("inactivity", len(inactive))
		s.metrics.AddCandidates("accuracy", len(lowAccuracy))
	}
	return union(inactive, lowAccuracy), nil
}

func union(sets ...[]*models.Candidate) []*models.Candidate {
	seen := make(map[id.AccountID]bool)
	var out []*models.Candidate
	for _, set := range sets {
		for _, c := range set {
			if seen[c.Account.ID] {
				continue
			}
			seen[c.Account.ID] = true
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) processAccount(ctx context.Context, c *models.Candidate, mode models.Mode, now time.Time, result *models.RunResult) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.account", trace.WithAttributes(attribute.String("account_id", c.Account.ID.String())))
	defer span.End()

	var current models.ActionKind
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			span.RecordError(err)
			s.fail(ctx, result, c.Account.ID, current, err)
		}
	}()

	result.Processed++
	cls := classifier.Classify(c, now, s.threshold)
	actions := policy.Decide(c, cls, mode, now, s.rules)
	for _, action := range actions {
		current = action.Kind
		outcome, err := s.execute(ctx, c, cls, action)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "action failed")
			s.fail(ctx, result, c.Account.ID, action.Kind, err)
			return
		}
		tally(result, action.Kind, outcome)
	}
}

func (s *Service) execute(ctx context.Context, c *models.Candidate, cls models.Classification, action models.Action) (models.Outcome, error) {
	switch action.Kind {
	case models.ActionSendInactivityWarning:
		inactivity := cls.Inactivity
		inactivity.Level = action.Level
		return s.executor.SendInactivityWarning(ctx, c, inactivity)
	case models.ActionSendLowAccuracyWarning:
		return s.executor.SendLowAccuracyWarning(ctx, c)
	case models.ActionSendAccuracyDeletion:
		return s.executor.SendAccuracyDeletionNotice(ctx, c)
	case models.ActionDeleteAccount:
		return s.executor.DeleteAccount(ctx, c, action.Reason, cls.Inactivity.DaysInactive)
	default:
		return "", dErrors.New(dErrors.CodeInternal, "unknown action "+string(action.Kind))
	}
}

func tally(result *models.RunResult, kind models.ActionKind, outcome models.Outcome) {
	if outcome == models.OutcomeNotifyFailed {
		result.NotificationsFailed++
		return
	}
	if outcome != models.OutcomeApplied {
		return
	}
	switch kind {
	case models.ActionSendInactivityWarning:
		result.InactivityWarnings++
		result.WarningsSent++
	case models.ActionSendLowAccuracyWarning:
		result.AccuracyWarnings++
		result.WarningsSent++
	case models.ActionDeleteAccount:
		result.AccountsDeleted++
	}
}

func (s *Service) fail(ctx context.Context, result *models.RunResult, accountID id.AccountID, action models.ActionKind, err error) {
	result.Failures = append(result.Failures, models.Failure{
		AccountID: accountID,
		Action:    action,
		Message:   err.Error(),
	})
	if s.metrics != nil {
		s.metrics.IncAccountFailure()
	}
	s.logger.ErrorContext(ctx, "account processing failed",
		"account_id", accountID.String(),
		"action", action,
		"error", err,
	)
}

func (s *Service) observe(result *models.RunResult, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRun(result.Mode.String(), status,
		result.FinishedAt.Sub(result.StartedAt).Seconds(),
		float64(result.FinishedAt.Unix()))
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Actor == "" {
		if actor := admin.GetAdminActorID(ctx); actor != "" {
			event.Actor = actor
		}
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

// loadAccount maps store errors for the manual endpoints.
func (s *Service) loadAccount(ctx context.Context, accountID id.AccountID) (*models.Candidate, error) {
	c, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if c.Account.IsDeleted() {
		return nil, dErrors.New(dErrors.CodeConflict, "account is already deleted")
	}
	return c, nil
}
