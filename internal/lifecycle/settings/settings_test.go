package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"custodian/internal/audit"
	"custodian/internal/lifecycle/models"
	dErrors "custodian/pkg/domain-errors"
)

type brokenStore struct{ getErr, setErr error }

func (b brokenStore) Get(context.Context) (string, bool, error) { return "", false, b.getErr }
func (b brokenStore) Set(context.Context, string) error         { return b.setErr }

type SettingsSuite struct {
	suite.Suite
	store   *InMemory
	audit   *audit.InMemoryStore
	service *Service
}

func TestSettingsSuite(t *testing.T) {
	suite.Run(t, new(SettingsSuite))
}

func (s *SettingsSuite) SetupTest() {
	s.store = NewInMemory()
	s.audit = audit.NewInMemoryStore()
	s.service = New(s.store, audit.NewPublisher(s.audit),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *SettingsSuite) TestDefaultsToManual() {
	s.Equal(models.ModeManual, s.service.Mode(context.Background()))
}

func (s *SettingsSuite) TestInitialModeOption() {
	svc := New(NewInMemory(), nil, WithInitialMode(models.ModeAutomated))
	s.Equal(models.ModeAutomated, svc.Mode(context.Background()))
}

func (s *SettingsSuite) TestSetModeNormalizesAndAudits() {
	mode, err := s.service.SetMode(context.Background(), "  Automated ", "ops")
	s.Require().NoError(err)
	s.Equal(models.ModeAutomated, mode)
	s.Equal(models.ModeAutomated, s.service.Mode(context.Background()))

	events := s.audit.All()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionAutomationModeChanged, events[0].Action)
	s.Equal("ops", events[0].Actor)
	s.Equal("manual", events[0].Detail["from"])
	s.Equal("automated", events[0].Detail["to"])
}

func (s *SettingsSuite) TestSetSameModeIsNotAudited() {
	_, err := s.service.SetMode(context.Background(), "manual", "ops")
	s.Require().NoError(err)
	s.Empty(s.audit.All())
}

func (s *SettingsSuite) TestInvalidModeRejected() {
	_, err := s.service.SetMode(context.Background(), "yolo", "ops")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal(models.ModeManual, s.service.Mode(context.Background()))
}

func (s *SettingsSuite) TestCorruptStoredValueReadsAsManual() {
	s.Require().NoError(s.store.Set(context.Background(), "AUTOMATIC!!"))
	s.Equal(models.ModeManual, s.service.Mode(context.Background()))
}

func TestReadFailureDegradesToManual(t *testing.T) {
	svc := New(brokenStore{getErr: errors.New("redis down")}, nil,
		WithInitialMode(models.ModeAutomated),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.Equal(t, models.ModeManual, svc.Mode(context.Background()))
}

func TestWriteFailureIsUnavailable(t *testing.T) {
	svc := New(brokenStore{setErr: errors.New("redis down")}, nil,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	_, err := svc.SetMode(context.Background(), "automated", "ops")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
