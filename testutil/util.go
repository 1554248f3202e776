package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"bank/postgres"
)

// Postgres connects to the database described by POSTGRES_* variables, loading
// ../.env first when present. The test is skipped when no database is configured.
func Postgres(t testing.TB) *sqlx.DB {
	t.Helper()

	_ = godotenv.Load("../.env")
	config, err := postgres.Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !config.Configured() {
		t.Skip("POSTGRES_DB_NAME not set")
	}

	db, err := postgres.Connect(config)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

// Truncate empties every table the services write to
func Truncate(t testing.TB, db *sqlx.DB) {
	t.Helper()
	db.MustExec("TRUNCATE transactions, ledger_transfers, accounts")
}

func Decimal(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
