// Package settings owns the process-wide automation mode. The lifecycle core
// never reads it directly; callers read it here and pass it in.
package settings

import (
	"context"
	"log/slog"
	"sync"

	"custodian/internal/audit"
	"custodian/internal/lifecycle/metrics"
	"custodian/internal/lifecycle/models"
	dErrors "custodian/pkg/domain-errors"
)

// Store persists the raw mode value. ok is false when nothing has been stored yet.
type Store interface {
	Get(ctx context.Context) (raw string, ok bool, err error)
	Set(ctx context.Context, raw string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
	auditor AuditPublisher
	initial models.Mode
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

// WithInitialMode sets the mode reported before anything has been stored.
func WithInitialMode(m models.Mode) Option {
	return func(s *Service) {
		s.initial = m
	}
}

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

func New(store Store, auditor AuditPublisher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		auditor: auditor,
		initial: models.ModeManual,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the current mode. Any read failure or unrecognized stored
// value yields manual.
func (s *Service) Mode(ctx context.Context) models.Mode {
	raw, ok, err := s.store.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read automation mode, using manual", "error", err)
		return models.ModeManual
	}
	if !ok {
		return s.initial
	}
	mode, err := models.ParseMode(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "stored automation mode is invalid, using manual", "value", raw)
	}
	return mode
}

// SetMode validates raw and stores it. Changes are audited with actor.
func (s *Service) SetMode(ctx context.Context, raw string, actor string) (models.Mode, error) {
	mode, err := models.ParseMode(raw)
	if err != nil {
		return models.ModeManual, err
	}
	previous := s.Mode(ctx)
	if err := s.store.Set(ctx, string(mode)); err != nil {
		return previous, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store automation mode")
	}
	if s.metrics != nil {
		s.metrics.SetAutomated(mode.IsAutomated())
	}
	if previous == mode {
		return mode, nil
	}

	s.logger.InfoContext(ctx, "automation mode changed",
		"from", previous,
		"to", mode,
		"actor", actor,
	)
	if s.auditor != nil {
		if err := s.auditor.Emit(ctx, audit.Event{
			Actor:  actor,
			Action: audit.ActionAutomationModeChanged,
			Detail: map[string]string{"from": string(previous), "to": string(mode)},
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
		}
	}
	return mode, nil
}

// InMemory keeps the mode for the life of the process.
type InMemory struct {
	mu  sync.RWMutex
	raw string
	set bool
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Get(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw, m.set, nil
}

func (m *InMemory) Set(_ context.Context, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	m.set = true
	return nil
}
