package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"custodian/internal/audit/outbox"
	outboxpg "custodian/internal/audit/outbox/postgres"
	"custodian/internal/lifecycle/models"
	"custodian/internal/sentinel"
	id "custodian/pkg/domain"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectCandidate = `
	SELECT a.id, a.username, a.company_name, a.email, a.last_login_at, a.created_at,
	       a.warnings_sent, a.last_warning_sent_at, a.status, a.deleted_at,
	       COALESCE(a.deletion_reason, ''), a.updated_at,
	       m.accuracy, COALESCE(m.accuracy_warning_sent, false), m.last_accuracy_check_at
	FROM accounts a
	LEFT JOIN model_records m ON m.account_id = a.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (*models.Candidate, error) {
	var (
		accountID      uuid.UUID
		c              models.Candidate
		lastLogin      sql.NullTime
		lastWarning    sql.NullTime
		deletedAt      sql.NullTime
		status, reason string
		accuracy       sql.NullFloat64
		lastCheck      sql.NullTime
	)
	err := row.Scan(
		&accountID, &c.Account.Username, &c.Account.CompanyName, &c.Account.Email,
		&lastLogin, &c.Account.CreatedAt,
		&c.Account.WarningsSent, &lastWarning, &status, &deletedAt,
		&reason, &c.Account.UpdatedAt,
		&accuracy, &c.Model.AccuracyWarningSent, &lastCheck,
	)
	if err != nil {
		return nil, err
	}
	c.Account.ID = id.AccountID(accountID)
	c.Account.Status = models.Status(status)
	c.Account.DeletionReason = models.DeletionReason(reason)
	c.Account.CreatedAt = c.Account.CreatedAt.UTC()
	c.Account.UpdatedAt = c.Account.UpdatedAt.UTC()
	c.Account.LastLoginAt = nullTime(lastLogin)
	c.Account.LastWarningSentAt = nullTime(lastWarning)
	c.Account.DeletedAt = nullTime(deletedAt)
	c.Model.AccountID = c.Account.ID
	c.Model.LastAccuracyCheckAt = nullTime(lastCheck)
	if accuracy.Valid {
		v := accuracy.Float64
		c.Model.Accuracy = &v
	}
	return &c, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// Save upserts an account and its model record.
func (s *PostgresStore) Save(ctx context.Context, c *models.Candidate) error {
	if c == nil {
		return fmt.Errorf("account is required")
	}
	if err := c.Account.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin account save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	var reason sql.NullString
	if c.Account.DeletionReason != "" {
		reason = sql.NullString{String: string(c.Account.DeletionReason), Valid: true}
	}
	updatedAt := c.Account.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (id, username, company_name, email, last_login_at, created_at,
		                      warnings_sent, last_warning_sent_at, status, deleted_at, deletion_reason, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			company_name = EXCLUDED.company_name,
			email = EXCLUDED.email,
			last_login_at = EXCLUDED.last_login_at,
			warnings_sent = EXCLUDED.warnings_sent,
			last_warning_sent_at = EXCLUDED.last_warning_sent_at,
			status = EXCLUDED.status,
			deleted_at = EXCLUDED.deleted_at,
			deletion_reason = EXCLUDED.deletion_reason,
			updated_at = EXCLUDED.updated_at`,
		uuid.UUID(c.Account.ID), c.Account.Username, c.Account.CompanyName, c.Account.Email,
		toNullTime(c.Account.LastLoginAt), c.Account.CreatedAt.UTC(),
		c.Account.WarningsSent, toNullTime(c.Account.LastWarningSentAt), string(c.Account.Status),
		toNullTime(c.Account.DeletedAt), reason, updatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username already taken: %w", sentinel.ErrInvalidState)
		}
		return fmt.Errorf("save account: %w", err)
	}

	var accuracy sql.NullFloat64
	if c.Model.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *c.Model.Accuracy, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO model_records (account_id, accuracy, accuracy_warning_sent, last_accuracy_check_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id) DO UPDATE SET
			accuracy = EXCLUDED.accuracy,
			accuracy_warning_sent = EXCLUDED.accuracy_warning_sent,
			last_accuracy_check_at = EXCLUDED.last_accuracy_check_at`,
		uuid.UUID(c.Account.ID), accuracy, c.Model.AccuracyWarningSent, toNullTime(c.Model.LastAccuracyCheckAt),
	)
	if err != nil {
		return fmt.Errorf("save model record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit account save: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Candidate, error) {
	c, err := scanCandidate(s.db.QueryRowContext(ctx, selectCandidate+` WHERE a.id = $1`, uuid.UUID(accountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return c, nil
}

// ListInactiveCandidates returns non-deleted accounts whose last login (or
// creation time, when they never logged in) is at or before cutoff.
func (s *PostgresStore) ListInactiveCandidates(ctx context.Context, cutoff time.Time) ([]*models.Candidate, error) {
	return s.list(ctx, "list inactive candidates", selectCandidate+`
		WHERE a.status <> 'deleted'
		  AND COALESCE(a.last_login_at, a.created_at) <= $1
		ORDER BY a.id`, cutoff.UTC())
}

// ListLowAccuracyCandidates returns non-deleted accounts whose trained model scores below threshold.
func (s *PostgresStore) ListLowAccuracyCandidates(ctx context.Context, threshold float64) ([]*models.Candidate, error) {
	return s.list(ctx, "list low accuracy candidates", selectCandidate+`
		WHERE a.status <> 'deleted'
		  AND m.accuracy IS NOT NULL
		  AND m.accuracy < $1
		ORDER BY a.id`, threshold)
}

func (s *PostgresStore) list(ctx context.Context, op, query string, args ...any) ([]*models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// RecordInactivityWarning increments warnings_sent only while
// last_warning_sent_at still equals previous.
func (s *PostgresStore) RecordInactivityWarning(ctx context.Context, accountID id.AccountID, previous *time.Time, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET warnings_sent = warnings_sent + 1,
		    last_warning_sent_at = $2,
		    updated_at = $2
		WHERE id = $1
		  AND status <> 'deleted'
		  AND last_warning_sent_at IS NOT DISTINCT FROM $3`,
		uuid.UUID(accountID), at.UTC(), toNullTime(previous))
	if err != nil {
		return false, fmt.Errorf("record inactivity warning: %w", err)
	}
	return s.appliedOrMissing(ctx, res, accountID)
}

// MarkAccuracyWarned sets accuracy_warning_sent while it is still false.
func (s *PostgresStore) MarkAccuracyWarned(ctx context.Context, accountID id.AccountID, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE model_records m
		SET accuracy_warning_sent = true,
		    last_accuracy_check_at = $2
		FROM accounts a
		WHERE m.account_id = $1
		  AND a.id = m.account_id
		  AND a.status <> 'deleted'
		  AND m.accuracy_warning_sent = false`,
		uuid.UUID(accountID), at.UTC())
	if err != nil {
		return false, fmt.Errorf("mark accuracy warned: %w", err)
	}
	return s.appliedOrMissing(ctx, res, accountID)
}

// appliedOrMissing distinguishes "condition no longer holds" from "no such account".
func (s *PostgresStore) appliedOrMissing(ctx context.Context, res sql.Result, accountID id.AccountID) (bool, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, uuid.UUID(accountID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return false, nil
}

// RunInTx runs fn inside one database transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	if err := fn(ctx, &postgresTx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) SoftDelete(ctx context.Context, accountID id.AccountID, reason models.DeletionReason, at time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET status = 'deleted', deleted_at = $2, deletion_reason = $3, updated_at = $2
		WHERE id = $1 AND status <> 'deleted'`,
		uuid.UUID(accountID), at.UTC(), string(reason))
	if err != nil {
		return false, fmt.Errorf("soft delete account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	var exists bool
	if err := t.tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, uuid.UUID(accountID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check account exists: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
	}
	return false, nil
}

func (t *postgresTx) AppendOutbox(ctx context.Context, entry *outbox.Entry) error {
	return outboxpg.AppendTx(ctx, t.tx, entry)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
