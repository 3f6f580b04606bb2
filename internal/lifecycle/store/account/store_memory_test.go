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
)

type InMemoryStoreSuite struct {
	suite.Suite
	outbox *outbox.InMemoryStore
	store  *account.InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.outbox = outbox.NewInMemoryStore()
	s.store = account.NewInMemory(s.outbox)
}

func (s *InMemoryStoreSuite) save(c *models.Candidate) *models.Candidate {
	s.Require().NoError(s.store.Save(context.Background(), c))
	return c
}

func (s *InMemoryStoreSuite) TestFindByIDReturnsCopy() {
	c := s.save(testutil.NewAccountBuilder().WithAccuracy(0.8).Build())

	found, err := s.store.FindByID(context.Background(), c.Account.ID)
	s.Require().NoError(err)
	s.Equal(c.Account.Email, found.Account.Email)

	*found.Model.Accuracy = 0.1
	again, err := s.store.FindByID(context.Background(), c.Account.ID)
	s.Require().NoError(err)
	s.InDelta(0.8, *again.Model.Accuracy, 1e-9)
}

func (s *InMemoryStoreSuite) TestFindByIDNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestSaveRejectsInvariantViolation() {
	c := testutil.NewAccountBuilder().Build()
	at := testutil.Now
	c.Account.LastWarningSentAt = &at
	s.Error(s.store.Save(context.Background(), c))
}

func (s *InMemoryStoreSuite) TestListInactiveCandidates() {
	ctx := context.Background()
	fresh := s.save(testutil.NewAccountBuilder().InactiveFor(3).Build())
	boundary := s.save(testutil.NewAccountBuilder().InactiveFor(15).Build())
	stale := s.save(testutil.NewAccountBuilder().InactiveFor(45).Build())
	neverLogged := s.save(testutil.NewAccountBuilder().NeverLoggedIn(20).Build())
	s.save(testutil.NewAccountBuilder().InactiveFor(200).Deleted(models.DeletionReasonManual, testutil.Now).Build())

	cutoff := testutil.Now.Add(-15 * 24 * time.Hour)
	got, err := s.store.ListInactiveCandidates(ctx, cutoff)
	s.Require().NoError(err)

	ids := map[id.AccountID]bool{}
	for _, c := range got {
		ids[c.Account.ID] = true
	}
	s.Len(got, 3)
	s.True(ids[boundary.Account.ID])
	s.True(ids[stale.Account.ID])
	s.True(ids[neverLogged.Account.ID])
	s.False(ids[fresh.Account.ID])
}

func (s *InMemoryStoreSuite) TestListLowAccuracyCandidates() {
	ctx := context.Background()
	low := s.save(testutil.NewAccountBuilder().WithAccuracy(0.5).Build())
	s.save(testutil.NewAccountBuilder().WithAccuracy(0.65).Build())
	s.save(testutil.NewAccountBuilder().Build())
	s.save(testutil.NewAccountBuilder().WithAccuracy(0.2).Deleted(models.DeletionReasonLowAccuracy, testutil.Now).Build())

	got, err := s.store.ListLowAccuracyCandidates(ctx, 0.65)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(low.Account.ID, got[0].Account.ID)
}

func (s *InMemoryStoreSuite) TestRecordInactivityWarningIsConditional() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().InactiveFor(20).Build())

	ok, err := s.store.RecordInactivityWarning(ctx, c.Account.ID, nil, testutil.Now)
	s.Require().NoError(err)
	s.True(ok)

	// A second writer that read the same (nil) previous value loses.
	ok, err = s.store.RecordInactivityWarning(ctx, c.Account.ID, nil, testutil.Now)
	s.Require().NoError(err)
	s.False(ok)

	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.Equal(1, found.Account.WarningsSent)
	s.True(found.Account.LastWarningSentAt.Equal(testutil.Now))

	next := testutil.Now.Add(24 * time.Hour)
	ok, err = s.store.RecordInactivityWarning(ctx, c.Account.ID, found.Account.LastWarningSentAt, next)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *InMemoryStoreSuite) TestConcurrentWarningsApplyOnce() {
	c := s.save(testutil.NewAccountBuilder().InactiveFor(20).Build())

	result := testutil.RunConcurrent(20, func(int) error {
		return testutil.Applied(s.store.RecordInactivityWarning(context.Background(), c.Account.ID, nil, testutil.Now))
	})
	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.NotApplied)
}

func (s *InMemoryStoreSuite) TestMarkAccuracyWarned() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().WithAccuracy(0.4).Build())

	ok, err := s.store.MarkAccuracyWarned(ctx, c.Account.ID, testutil.Now)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.MarkAccuracyWarned(ctx, c.Account.ID, testutil.Now.Add(time.Hour))
	s.Require().NoError(err)
	s.False(ok)

	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.True(found.Model.AccuracyWarningSent)
	s.True(found.Model.LastAccuracyCheckAt.Equal(testutil.Now))
}

func (s *InMemoryStoreSuite) TestRunInTxCommitsDeleteWithOutbox() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().InactiveFor(120).Build())

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
		ok, err := tx.SoftDelete(ctx, c.Account.ID, models.DeletionReasonInactivity, testutil.Now)
		s.Require().NoError(err)
		s.True(ok)
		return tx.AppendOutbox(ctx, outbox.NewEntry("account", c.Account.ID.String(), "account_deleted", []byte(`{}`), testutil.Now))
	})
	s.Require().NoError(err)

	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.True(found.Account.IsDeleted())
	s.Equal(models.DeletionReasonInactivity, found.Account.DeletionReason)
	s.Len(s.outbox.Entries(), 1)
}

func (s *InMemoryStoreSuite) TestRunInTxRollsBackOnError() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().InactiveFor(120).Build())

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
		if _, err := tx.SoftDelete(ctx, c.Account.ID, models.DeletionReasonInactivity, testutil.Now); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, outbox.NewEntry("account", c.Account.ID.String(), "account_deleted", []byte(`{}`), testutil.Now)); err != nil {
			return err
		}
		return errors.New("boom")
	})
	s.Require().Error(err)

	found, err := s.store.FindByID(ctx, c.Account.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusActive, found.Account.Status)
	s.Empty(s.outbox.Entries())
}

func (s *InMemoryStoreSuite) TestSoftDeleteTwiceReportsNotApplied() {
	ctx := context.Background()
	c := s.save(testutil.NewAccountBuilder().Build())

	deleteOnce := func() bool {
		var applied bool
		s.Require().NoError(s.store.RunInTx(ctx, func(ctx context.Context, tx account.Tx) error {
			var err error
			applied, err = tx.SoftDelete(ctx, c.Account.ID, models.DeletionReasonManual, testutil.Now)
			return err
		}))
		return applied
	}
	s.True(deleteOnce())
	s.False(deleteOnce())
}
