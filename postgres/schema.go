package postgres

import "github.com/jmoiron/sqlx"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
	id uuid PRIMARY KEY,
	user_id uuid NOT NULL,
	number CHAR(10) NOT NULL,
	type TEXT NOT NULL,
	balance NUMERIC NOT NULL CHECK (balance >= 0),
	status TEXT NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	last_transaction_at timestamptz NOT NULL,
	CONSTRAINT accounts_number_key UNIQUE (number)
	)`,
	`CREATE INDEX IF NOT EXISTS accounts_user_id_idx ON accounts (user_id)`,
	`CREATE INDEX IF NOT EXISTS accounts_stale_idx ON accounts (status, last_transaction_at)`,

	// one row per applied transfer; makes a repeated apply a no-op
	`CREATE TABLE IF NOT EXISTS ledger_transfers (
	transaction_id uuid PRIMARY KEY,
	from_id uuid NOT NULL REFERENCES accounts (id),
	to_id uuid NOT NULL REFERENCES accounts (id),
	amount NUMERIC NOT NULL,
	applied_at timestamptz NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
	id uuid PRIMARY KEY,
	from_id uuid NOT NULL,
	to_id uuid NOT NULL,
	amount NUMERIC NOT NULL CHECK (amount > 0),
	description TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT 'TRANSFER',
	status TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL,
	CHECK (from_id <> to_id)
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_from_id_idx ON transactions (from_id, status)`,
	`CREATE INDEX IF NOT EXISTS transactions_to_id_idx ON transactions (to_id, status)`,
}

func createTables(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
