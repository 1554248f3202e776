package transfer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
)

// Terminal statuses never change again
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Reason explains why a transaction FAILED
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonAccountNotFound       Reason = "AccountNotFound"
	ReasonInactiveAccount       Reason = "InactiveAccount"
	ReasonInsufficientFunds     Reason = "InsufficientFunds"
	ReasonDownstreamUnavailable Reason = "DownstreamUnavailable"
)

type Type string

const TypeTransfer Type = "TRANSFER"

var (
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidTransfer is the class of validation errors returned by Initiate
	ErrInvalidTransfer = errors.New("invalid transfer")
	ErrMissingAccount  = fmt.Errorf("%w: source and destination accounts are required", ErrInvalidTransfer)
	ErrSameAccount     = fmt.Errorf("%w: source and destination must differ", ErrInvalidTransfer)
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTransfer)
)

// Transaction records a request to move money between two accounts and its outcome
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	FromID        uuid.UUID       `db:"from_id" json:"from_id"`
	ToID          uuid.UUID       `db:"to_id" json:"to_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Description   string          `db:"description" json:"description"`
	Type          Type            `db:"type" json:"type"`
	Status        Status          `db:"status" json:"status"`
	FailureReason Reason          `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Direction of money relative to the account a statement is built for
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// StatementEntry is one successful transaction as seen from a single account
type StatementEntry struct {
	TransactionID         uuid.UUID
	CounterpartyAccountID uuid.UUID
	Direction             Direction
	Amount                decimal.Decimal
	Description           string
	Timestamp             time.Time
}

func entryFor(accountID uuid.UUID, t *Transaction) StatementEntry {
	e := StatementEntry{
		TransactionID: t.ID,
		Amount:        t.Amount,
		Description:   t.Description,
		Timestamp:     t.CreatedAt,
	}
	if t.FromID == accountID {
		e.Direction = Debit
		e.CounterpartyAccountID = t.ToID
	} else {
		e.Direction = Credit
		e.CounterpartyAccountID = t.FromID
	}
	return e
}
