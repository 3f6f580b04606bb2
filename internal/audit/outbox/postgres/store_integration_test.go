//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodian/internal/audit/outbox"
	outboxpg "custodian/internal/audit/outbox/postgres"
	"custodian/pkg/testutil/containers"
)

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outboxpg.Store
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = outboxpg.New(s.postgres.DB)
}

func (s *OutboxStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *OutboxStoreSuite) appendAt(eventType string, at time.Time) *outbox.Entry {
	entry := outbox.NewEntry("automation", "automation", eventType, []byte(`{"action":"`+eventType+`"}`), at)
	s.Require().NoError(s.store.Append(context.Background(), entry))
	return entry
}

func (s *OutboxStoreSuite) TestFetchOldestFirstAndMark() {
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Minute)
	first := s.appendAt("automation_run_completed", base)
	second := s.appendAt("automation_mode_changed", base.Add(time.Second))

	entries, err := s.store.FetchUnprocessed(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(first.ID, entries[0].ID)
	s.Equal(second.ID, entries[1].ID)
	s.JSONEq(`{"action":"automation_run_completed"}`, string(entries[0].Payload))

	s.Require().NoError(s.store.MarkProcessed(ctx, first.ID, time.Now()))
	s.Error(s.store.MarkProcessed(ctx, first.ID, time.Now()), "second mark matches nothing")

	pending, err := s.store.CountPending(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), pending)
}

func (s *OutboxStoreSuite) TestAppendTxRollsBackWithCaller() {
	ctx := context.Background()
	tx, err := s.postgres.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	entry := outbox.NewEntry("account", "a-1", "account_deleted", []byte(`{}`), time.Now())
	s.Require().NoError(outboxpg.AppendTx(ctx, tx, entry))
	s.Require().NoError(tx.Rollback())

	s.Zero(s.postgres.CountOutbox(ctx, s.T(), "account_deleted"))
}

func (s *OutboxStoreSuite) TestDeleteProcessedBefore() {
	ctx := context.Background()
	old := s.appendAt("automation_run_completed", time.Now().Add(-time.Hour))
	s.appendAt("automation_run_completed", time.Now())
	s.Require().NoError(s.store.MarkProcessed(ctx, old.ID, time.Now().Add(-48*time.Hour)))

	n, err := s.store.DeleteProcessedBefore(ctx, time.Now().Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), n)
	s.Equal(1, s.postgres.CountOutbox(ctx, s.T(), "automation_run_completed"))
}
