package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bank/transfer/options"
)

// Data store abstraction for transactions
type Repo interface {
	Create(ctx context.Context, t *Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	Find(ctx context.Context, opts ...*options.TransactionOptions) ([]*Transaction, error)
	// Complete writes a terminal status only if the stored row is still INITIATED.
	// It reports false when another writer got there first.
	Complete(ctx context.Context, t *Transaction) (bool, error)
}

var _ Repo = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, t *Transaction) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO transactions (id, from_id, to_id, amount, description, type, status, failure_reason, created_at, updated_at)
		VALUES (:id, :from_id, :to_id, :amount, :description, :type, :status, :failure_reason, :created_at, :updated_at)`,
		t,
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	var result Transaction
	err := r.db.GetContext(ctx, &result, "SELECT * FROM transactions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *PostgresRepo) Complete(ctx context.Context, t *Transaction) (bool, error) {
	res, err := r.db.NamedExecContext(ctx,
		`UPDATE transactions SET status = :status, failure_reason = :failure_reason, updated_at = :updated_at
		WHERE id = :id AND status = 'INITIATED'`,
		t,
	)
	if err != nil {
		return false, fmt.Errorf("completing transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type rangeFilter struct {
	column string
	r      options.Range
}

// Executes a Find operation and returns a list of Transactions ordered by creation time
// The `transactionOptions` can be used to specify options for the operation
func (r *PostgresRepo) Find(ctx context.Context, transactionOptions ...*options.TransactionOptions) ([]*Transaction, error) {
	var result []*Transaction
	// build query
	query := "SELECT * FROM transactions"
	order := " ORDER BY created_at, id"

	if len(transactionOptions) == 0 {
		err := r.db.SelectContext(ctx, &result, query+order)
		if err != nil {
			return nil, err
		}

		return result, nil
	}

	opt := transactionOptions[0]

	var where []string
	namedParams := make(map[string]interface{})

	updateQueryParams := func(stmt, key string, value interface{}) {
		where = append(where, stmt)
		namedParams[key] = value
	}

	if len(opt.IDs) > 0 {
		updateQueryParams("id in (:id)", "id", opt.IDs)
	}
	if len(opt.AccountIDs) > 0 {
		updateQueryParams("(from_id in (:account_id) OR to_id in (:account_id))", "account_id", opt.AccountIDs)
	}
	if len(opt.Statuses) > 0 {
		updateQueryParams("status in (:status)", "status", opt.Statuses)
	}

	var ranges []rangeFilter
	if opt.Amount != nil {
		ranges = append(ranges, rangeFilter{"amount", opt.Amount})
	}
	if opt.Timestamp != nil {
		ranges = append(ranges, rangeFilter{"created_at", opt.Timestamp})
	}
	for _, each := range ranges {
		from, ok := each.r.From()
		if ok {
			key := each.column + "_from"
			updateQueryParams(fmt.Sprintf("%s >= :%s", each.column, key), key, from)
		}
		to, ok := each.r.To()
		if ok {
			key := each.column + "_to"
			updateQueryParams(fmt.Sprintf("%s <= :%s", each.column, key), key, to)
		}
	}

	if len(where) > 0 {
		query = fmt.Sprintf("%s WHERE %s",
			query,
			strings.Join(where, " AND "),
		)
	}
	query += order

	query, args, err := sqlx.Named(query, namedParams)
	if err != nil {
		return nil, err
	}
	query, args, err = sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)
	err = r.db.SelectContext(ctx, &result, query, args...)
	if err != nil {
		return nil, err
	}

	return result, nil
}
