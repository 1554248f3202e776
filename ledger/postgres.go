package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var _ Store = (*PostgresStore)(nil)

// unique_violation
const pqUniqueViolation = "23505"

type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	var account Account
	err := s.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return &account, nil
}

// Transfer applies the request in a single database transaction.
// Rows are locked with SELECT ... FOR UPDATE one at a time in lockOrder.
func (s *PostgresStore) Transfer(ctx context.Context, req TransferRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("beginning transfer: %w", err)
	}
	defer tx.Rollback()

	locked := make(map[uuid.UUID]*Account, 2)
	first, second := lockOrder(req.FromID, req.ToID)
	for _, id := range []uuid.UUID{first, second} {
		var account Account
		err := tx.GetContext(ctx, &account, "SELECT * FROM accounts WHERE id = $1 FOR UPDATE", id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("locking account: %w", err)
		}
		locked[id] = &account
	}

	// checked after the locks so a concurrent apply of the same id has committed
	var applied struct {
		FromID uuid.UUID       `db:"from_id"`
		ToID   uuid.UUID       `db:"to_id"`
		Amount decimal.Decimal `db:"amount"`
	}
	err = tx.GetContext(ctx, &applied,
		"SELECT from_id, to_id, amount FROM ledger_transfers WHERE transaction_id = $1",
		req.TransactionID,
	)
	switch {
	case err == nil:
		prev := TransferRequest{FromID: applied.FromID, ToID: applied.ToID, Amount: applied.Amount}
		if !req.sameMovement(prev) {
			return Outcome{}, ErrTransferMismatch
		}
		return Outcome{}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Outcome{}, fmt.Errorf("checking applied transfers: %w", err)
	}

	outcome := check(req, locked[req.FromID], locked[req.ToID])
	if !outcome.OK() {
		return outcome, nil
	}

	now := s.now()
	move := `UPDATE accounts
		SET balance = balance + $1, updated_at = $2, last_transaction_at = $2
		WHERE id = $3`
	if _, err = tx.ExecContext(ctx, move, req.Amount.Neg(), now, req.FromID); err != nil {
		return Outcome{}, fmt.Errorf("debiting account: %w", err)
	}
	if _, err = tx.ExecContext(ctx, move, req.Amount, now, req.ToID); err != nil {
		return Outcome{}, fmt.Errorf("crediting account: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_transfers (transaction_id, from_id, to_id, amount, applied_at)
		VALUES ($1, $2, $3, $4, $5)`,
		req.TransactionID, req.FromID, req.ToID, req.Amount, now,
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("recording transfer: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("committing transfer: %w", err)
	}
	return Outcome{}, nil
}

func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO accounts (id, user_id, number, type, balance, status, created_at, updated_at, last_transaction_at)
		VALUES (:id, :user_id, :number, :type, :balance, :status, :created_at, :updated_at, :last_transaction_at)`,
		account,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == "accounts_number_key" {
		return ErrDuplicateNumber
	}
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *PostgresStore) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM accounts WHERE number = $1)", number)
	if err != nil {
		return false, fmt.Errorf("checking account number: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	var result []*Account
	err := s.db.SelectContext(ctx, &result,
		"SELECT * FROM accounts WHERE user_id = $1 ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return result, nil
}

// DeactivateStale skips rows locked by an in-flight transfer; the next sweep picks them up.
func (s *PostgresStore) DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	// LIMIT NULL is no limit
	var lim interface{}
	if limit > 0 {
		lim = limit
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM accounts
			WHERE status = $3 AND last_transaction_at < $4
			ORDER BY id
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)`,
		StatusInactive, s.now(), StatusActive, cutoff, lim,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating stale accounts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
