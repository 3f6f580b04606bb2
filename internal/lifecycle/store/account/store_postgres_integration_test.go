//go:build integration

package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"custodian/internal/audit/outbox"
	"custodian/internal/lifecycle/models"
	"custodian/internal/lifecycle/store/account"
	"custodian/internal/sentinel"
	id "custodian/pkg/domain"
	"custodian/pkg/testutil"
	"custodian/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) save(c *models.Candidate) *models.Candidate {
	s.Require().NoError(s.store.Save(context.Background(), c))
	return c
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	c := s.save(testutil.NewAccountBuilder().InactiveFor(40).WithAccuracy(0.7).Build())

	found, err := s.store.FindByID(context.Background(), c.Account.ID)
	s.Require().NoError(err)
	s.Equal(c.Account.Username, found.Account.Username)
	s.Equal(models.StatusActive, found.Account.Status)
	s.Require().NotNil(found.Model.Accuracy)
	s.InDelta(0.7, *found.Model.Accuracy, 1e-9)
	s.WithinDuration(*c.Account.LastLoginAt, *found.Account.LastLoginAt, time.Millisecond)
}

func (s *PostgresStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestAccountWithoutModelRecordIsUntrained() {
	ctx := context.Background()
	accountID := s.postgres.InsertBareAccount(ctx, s.T(), nil)

	found, err := s.store.FindByID(ctx, id.AccountID(accountID))
	s.Require().NoError(err)
	s.False(found.Model.IsTrained())
	s.False(found.Model.AccuracyWarningSent)
}

func (s *PostgresStoreSuite) TestCandidateQueries() {
	ctx := context.Background()
	s.save(testutil.NewAccountBuilder().InactiveFor(2).Build())
	stale := s.save(testutil.NewAccountBuilder().InactiveFor(50).Build())
	low := s.save(testutil.NewAccountBuilder().WithAccuracy(0.3).Build())
	s.save(testutil.NewAccountBuilder().InactiveFor(300).WithAccuracy(0.1).Deleted(models.DeletionReasonManual, testutil.Now).Build())

	inactive, err := s.store.ListInactiveCandidates(ctx, testutil.Now.Add(-15*24*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(inactive, 1)
	s.Equal(stale.Account.ID, inactive[0].Account.ID)

	lowAcc, err := s.store.ListLowAccuracyCandidates(ctx, 0.65)
	s.Require().NoError(err)
	s.Require().Len(lowAcc, 1)
	s.Equal(low.Account.ID, lowAcc[0].Account.ID)
}

func (s *PostgresStoreSuite) TestRecordInactivityWarningCompareAndSet() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().InactiveFor(20).Build())

	result := testutil.RunConcurrent(10, func(int) error {
		return testutil.Applied(s.store.RecordInactivityWarning(ctx, c.Account.ID, nil, testutil.Now))
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.NotApplied)

	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Account.WarningsSent)

	_, err = s.store.RecordInactivityWarning(ctx, id.NewAccountID(), nil, testutil.Now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMarkAccuracyWarnedOnce() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().WithAccuracy(0.4).Build())

	ok, err := s.store.MarkAccuracyWarned(ctx, c.Account.ID, testutil.Now)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.store.MarkAccuracyWarned(ctx, c.Account.ID, testutil.Now)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *PostgresStoreSuite) TestRunInTxAtomicDelete() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().InactiveFor(120).Build())
	entry := func() *outbox.Entry {
		return outbox.NewEntry("account", c.Account.ID.String(), "account_deleted", []byte(`{"reason":"inactivity"}`), testutil.Now)
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
		if _, err := tx.SoftDelete(ctx, c.Account.ID, models.DeletionReasonInactivity, testutil.Now); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, entry()); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Require().Error(err)
	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.False(found.Account.IsDeleted())
	s.Zero(s.postgres.CountOutbox(ctx, s.T(), "account_deleted"))

	err = s.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
		ok, err := tx.SoftDelete(ctx, c.Account.ID, models.DeletionReasonInactivity, testutil.Now)
		if err != nil {
			return err
		}
		s.True(ok)
		return tx.AppendOutbox(ctx, entry())
	})
	s.Require().NoError(err)
	found, err = s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.True(found.Account.IsDeleted())
	s.Equal(models.DeletionReasonInactivity, found.Account.DeletionReason)
	s.Equal(1, s.postgres.CountOutbox(ctx, s.T(), "account_deleted"))
}
