// Package executor performs lifecycle actions: it notifies the account owner
// and commits the matching state change. Every action is safe to repeat.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"custodian/internal/audit"
	"custodian/internal/lifecycle/classifier"
	"custodian/internal/lifecycle/metrics"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/policy"
	"custodian/internal/lifecycle/store/account"
	"custodian/internal/notify"
	id "custodian/pkg/domain"
	dErrors "custodian/pkg/domain-errors"
	"custodian/pkg/platform/middleware/admin"
)

// AccountStore is the write side the executor needs. Each conditional write
// reports false when the state it expected is already gone.
type AccountStore interface {
	RecordInactivityWarning(ctx context.Context, accountID id.AccountID, previous *time.Time, at time.Time) (bool, error)
	MarkAccuracyWarned(ctx context.Context, accountID id.AccountID, at time.Time) (bool, error)
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx account.Tx) error) error
}

// AuditPublisher records non-transactional audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Executor runs one action at a time for one account.
type Executor struct {
	store     AccountStore
	notifier  notify.Notifier
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	rules     policy.Rules
	threshold float64
	portalURL string
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithRules sets the grace windows quoted in notifications.
func WithRules(rules policy.Rules) Option {
	return func(e *Executor) {
		e.rules = rules
	}
}

// WithAccuracyThreshold sets the threshold quoted in accuracy notices.
// Non-positive values keep the default.
func WithAccuracyThreshold(threshold float64) Option {
	return func(e *Executor) {
		if threshold > 0 {
			e.threshold = threshold
		}
	}
}

func WithPortalURL(url string) Option {
	return func(e *Executor) {
		e.portalURL = url
	}
}

func New(store AccountStore, notifier notify.Notifier, auditor AuditPublisher, opts ...Option) *Executor {
	e := &Executor{
		store:     store,
		notifier:  notifier,
		auditor:   auditor,
		logger:    slog.Default(),
		now:       time.Now,
		rules:     policy.DefaultRules(),
		threshold: classifier.DefaultAccuracyThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SendInactivityWarning notifies the owner and, on delivery, bumps the
// warning counter. The counter update is conditioned on the warning
// timestamp read with the candidate, so two racing runs record one warning.
func (e *Executor) SendInactivityWarning(ctx context.Context, c *models.Candidate, inactivity models.Inactivity) (models.Outcome, error) {
	const action = models.ActionSendInactivityWarning

	tmpl, ok := inactivityTemplates[inactivity.Level]
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "no inactivity warning for level "+string(inactivity.Level))
	}
	if !e.deliver(ctx, c, action, tmpl, e.templateData(c, inactivity.DaysInactive)) {
		return e.record(action, models.OutcomeNotifyFailed), nil
	}

	now := e.now().UTC()
	applied, err := e.store.RecordInactivityWarning(ctx, c.Account.ID, c.Account.LastWarningSentAt, now)
	if err != nil {
		return "", fmt.Errorf("record inactivity warning: %w", err)
	}
	if !applied {
		return e.record(action, models.OutcomeAlreadyApplied), nil
	}

	e.emit(ctx, audit.Event{
		Timestamp: now,
		AccountID: c.Account.ID.String(),
		Action:    audit.ActionInactivityWarningSent,
		Detail: map[string]string{
			"level":         string(inactivity.Level),
			"days_inactive": strconv.Itoa(inactivity.DaysInactive),
			"warnings_sent": strconv.Itoa(c.Account.WarningsSent + 1),
		},
	})
	e.logger.InfoContext(ctx, "inactivity warning sent",
		"account_id", c.Account.ID.String(),
		"level", inactivity.Level,
		"days_inactive", inactivity.DaysInactive,
	)
	return e.record(action, models.OutcomeApplied), nil
}

// SendLowAccuracyWarning notifies the owner and starts the accuracy grace window.
func (e *Executor) SendLowAccuracyWarning(ctx context.Context, c *models.Candidate) (models.Outcome, error) {
	const action = models.ActionSendLowAccuracyWarning

	if !c.Model.IsTrained() {
		return "", dErrors.New(dErrors.CodeBadRequest, "account has no trained model")
	}
	if !e.deliver(ctx, c, action, lowAccuracyTemplate, e.templateData(c, 0)) {
		return e.record(action, models.OutcomeNotifyFailed), nil
	}

	now := e.now().UTC()
	applied, err := e.store.MarkAccuracyWarned(ctx, c.Account.ID, now)
	if err != nil {
		return "", fmt.Errorf("mark accuracy warned: %w", err)
	}
	if !applied {
		return e.record(action, models.OutcomeAlreadyApplied), nil
	}

	e.emit(ctx, audit.Event{
		Timestamp: now,
		AccountID: c.Account.ID.String(),
		Action:    audit.ActionAccuracyWarningSent,
		Detail:    map[string]string{"accuracy": formatAccuracy(c.Model.Accuracy)},
	})
	e.logger.InfoContext(ctx, "low accuracy warning sent",
		"account_id", c.Account.ID.String(),
		"accuracy", *c.Model.Accuracy,
	)
	return e.record(action, models.OutcomeApplied), nil
}

// SendAccuracyDeletionNotice tells the owner the account is being deleted for
// low accuracy. It changes no state.
func (e *Executor) SendAccuracyDeletionNotice(ctx context.Context, c *models.Candidate) (models.Outcome, error) {
	const action = models.ActionSendAccuracyDeletion

	if !e.deliver(ctx, c, action, accuracyDeletionTemplate, e.templateData(c, 0)) {
		return e.record(action, models.OutcomeNotifyFailed), nil
	}
	e.emit(ctx, audit.Event{
		Timestamp: e.now().UTC(),
		AccountID: c.Account.ID.String(),
		Action:    audit.ActionAccuracyDeletionSent,
		Reason:    string(models.DeletionReasonLowAccuracy),
		Detail:    map[string]string{"accuracy": formatAccuracy(c.Model.Accuracy)},
	})
	return e.record(action, models.OutcomeApplied), nil
}

// DeleteAccount soft-deletes the account. The reason's notice goes out first
// on a best-effort basis; low-accuracy deletions get theirs from
// SendAccuracyDeletionNotice. The status change and its outbox event commit
// together or not at all.
func (e *Executor) DeleteAccount(ctx context.Context, c *models.Candidate, reason models.DeletionReason, daysInactive int) (models.Outcome, error) {
	const action = models.ActionDeleteAccount

	if tmpl, ok := deletionTemplates[reason]; ok {
		if !e.deliver(ctx, c, action, tmpl, e.templateData(c, daysInactive)) {
			e.logger.WarnContext(ctx, "deletion notice not delivered, deleting anyway",
				"account_id", c.Account.ID.String(),
				"reason", reason,
			)
		}
	}

	now := e.now().UTC()
	event := audit.Event{
		Timestamp: now,
		AccountID: c.Account.ID.String(),
		Actor:     actor(ctx),
		Action:    audit.ActionAccountDeleted,
		Reason:    string(reason),
	}
	entry, err := audit.NewOutboxEntry(event)
	if err != nil {
		return "", err
	}

	var applied bool
	err = e.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
		var txErr error
		applied, txErr = tx.SoftDelete(ctx, c.Account.ID, reason, now)
		if txErr != nil || !applied {
			return txErr
		}
		return tx.AppendOutbox(ctx, entry)
	})
	if err != nil {
		return "", fmt.Errorf("delete account: %w", err)
	}
	if !applied {
		return e.record(action, models.OutcomeAlreadyApplied), nil
	}

	e.logger.InfoContext(ctx, "account deleted",
		"account_id", c.Account.ID.String(),
		"reason", reason,
		"actor", event.Actor,
	)
	return e.record(action, models.OutcomeApplied), nil
}

func (e *Executor) deliver(ctx context.Context, c *models.Candidate, action models.ActionKind, tmpl messageTemplate, data templateData) bool {
	if c.Account.Email == "" {
		e.logger.WarnContext(ctx, "account has no email address",
			"account_id", c.Account.ID.String(),
			"action", action,
		)
		e.notifierFailed()
		return false
	}
	subject, body, err := tmpl.render(data)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to render notification",
			"account_id", c.Account.ID.String(),
			"action", action,
			"error", err,
		)
		e.notifierFailed()
		return false
	}
	ok := notify.SafeSend(ctx, e.notifier, notify.Message{
		Subject:    subject,
		Body:       body,
		Recipients: []string{c.Account.Email},
	}, e.logger)
	if !ok {
		e.logger.WarnContext(ctx, "notification failed",
			"account_id", c.Account.ID.String(),
			"action", action,
		)
		e.notifierFailed()
	}
	return ok
}

func (e *Executor) templateData(c *models.Candidate, daysInactive int) templateData {
	data := templateData{
		CompanyName:       c.Account.CompanyName,
		Username:          c.Account.Username,
		DaysInactive:      daysInactive,
		ThresholdPercent:  e.threshold * 100,
		DeletionGraceDays: int(e.rules.DeletionGrace / (24 * time.Hour)),
		AccuracyGraceDays: int(e.rules.AccuracyGrace / (24 * time.Hour)),
		PortalURL:         e.portalURL,
	}
	if c.Model.Accuracy != nil {
		data.AccuracyPercent = *c.Model.Accuracy * 100
	}
	return data
}

func (e *Executor) emit(ctx context.Context, event audit.Event) {
	if e.auditor == nil {
		return
	}
	if event.Actor == "" {
		event.Actor = actor(ctx)
	}
	if err := e.auditor.Emit(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"account_id", event.AccountID,
			"error", err,
		)
	}
}

func (e *Executor) record(action models.ActionKind, outcome models.Outcome) models.Outcome {
	if e.metrics != nil {
		e.metrics.IncAction(string(action), string(outcome))
	}
	return outcome
}

func (e *Executor) notifierFailed() {
	if e.metrics != nil {
		e.metrics.IncNotifierFailure()
	}
}

func actor(ctx context.Context) string {
	if a := admin.GetAdminActorID(ctx); a != "" {
		return a
	}
	return audit.ActorSystem
}

func formatAccuracy(accuracy *float64) string {
	if accuracy == nil {
		return "untrained"
	}
	return strconv.FormatFloat(*accuracy, 'f', 4, 64)
}
