package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"custodian/internal/audit/outbox"
	"custodian/internal/lifecycle/models"
	"custodian/internal/sentinel"
	id "custodian/pkg/domain"
)

// InMemoryStore keeps accounts in process memory. Writes are serialized by a
// single mutex, which also gives RunInTx its atomicity.
type InMemoryStore struct {
	mu       sync.Mutex
	accounts map[id.AccountID]*models.Candidate
	outbox   outbox.Appender
}

// NewInMemory constructs a store. Outbox entries appended inside RunInTx are
// forwarded to ob on commit; a nil ob discards them.
func NewInMemory(ob outbox.Appender) *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.AccountID]*models.Candidate),
		outbox:   ob,
	}
}

// Save inserts or replaces an account with its model record.
func (s *InMemoryStore) Save(_ context.Context, c *models.Candidate) error {
	if c == nil {
		return fmt.Errorf("account is required")
	}
	if err := c.Account.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	stored := clone(c)
	stored.Model.AccountID = stored.Account.ID

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[c.Account.ID] = stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, accountID id.AccountID) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return clone(c), nil
}

// ListInactiveCandidates returns non-deleted accounts whose inactivity
// reference is at or before cutoff, plus accounts with no reference at all.
func (s *InMemoryStore) ListInactiveCandidates(_ context.Context, cutoff time.Time) ([]*models.Candidate, error) {
	return s.list(func(c *models.Candidate) bool {
		ref, ok := inactivityReference(&c.Account)
		return !ok || !ref.After(cutoff)
	}), nil
}

// ListLowAccuracyCandidates returns non-deleted accounts whose trained model scores below threshold.
func (s *InMemoryStore) ListLowAccuracyCandidates(_ context.Context, threshold float64) ([]*models.Candidate, error) {
	return s.list(func(c *models.Candidate) bool {
		return c.Model.Accuracy != nil && *c.Model.Accuracy < threshold
	}), nil
}

func (s *InMemoryStore) list(match func(*models.Candidate) bool) []*models.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Candidate, 0)
	for _, c := range s.accounts {
		if c.Account.IsDeleted() || !match(c) {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.ID.String() < out[j].Account.ID.String()
	})
	return out
}

// RecordInactivityWarning increments warnings_sent and stamps last_warning_sent_at,
// but only while last_warning_sent_at still equals previous. Returns false when
// another writer got there first.
func (s *InMemoryStore) RecordInactivityWarning(_ context.Context, accountID id.AccountID, previous *time.Time, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.accounts[accountID]
	if !ok {
		return false, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	if c.Account.IsDeleted() || !sameTime(c.Account.LastWarningSentAt, previous) {
		return false, nil
	}
	if err := c.Account.RecordWarning(at); err != nil {
		return false, err
	}
	return true, nil
}

// MarkAccuracyWarned sets accuracy_warning_sent while it is still false.
func (s *InMemoryStore) MarkAccuracyWarned(_ context.Context, accountID id.AccountID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.accounts[accountID]
	if !ok {
		return false, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	if c.Account.IsDeleted() || c.Model.AccuracyWarningSent {
		return false, nil
	}
	c.Model.MarkWarned(at)
	return true, nil
}

// RunInTx stages mutations made through tx and applies them only if fn returns nil.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{store: s, deletes: make(map[id.AccountID]pendingDelete)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for _, entry := range tx.entries {
		if s.outbox == nil {
			break
		}
		if err := s.outbox.Append(ctx, entry); err != nil {
			return fmt.Errorf("append outbox entry: %w", err)
		}
	}
	for accountID, d := range tx.deletes {
		if err := s.accounts[accountID].Account.MarkDeleted(d.reason, d.at); err != nil {
			return err
		}
	}
	return nil
}

type pendingDelete struct {
	reason models.DeletionReason
	at     time.Time
}

// memoryTx runs with the store mutex held by RunInTx.
type memoryTx struct {
	store   *InMemoryStore
	deletes map[id.AccountID]pendingDelete
	entries []*outbox.Entry
}

func (t *memoryTx) SoftDelete(_ context.Context, accountID id.AccountID, reason models.DeletionReason, at time.Time) (bool, error) {
	c, ok := t.store.accounts[accountID]
	if !ok {
		return false, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	if _, staged := t.deletes[accountID]; staged || c.Account.IsDeleted() {
		return false, nil
	}
	t.deletes[accountID] = pendingDelete{reason: reason, at: at}
	return true, nil
}

func (t *memoryTx) AppendOutbox(_ context.Context, entry *outbox.Entry) error {
	if entry == nil {
		return fmt.Errorf("outbox entry is required")
	}
	t.entries = append(t.entries, entry)
	return nil
}
