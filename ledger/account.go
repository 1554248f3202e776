package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type Type string

const (
	TypeSavings  Type = "SAVINGS"
	TypeChecking Type = "CHECKING"
)

func (t Type) Valid() bool {
	return t == TypeSavings || t == TypeChecking
}

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateNumber = errors.New("account number already taken")

	// ErrInvalidAccount is the class of validation errors returned when opening an account
	ErrInvalidAccount  = errors.New("invalid account")
	ErrNegativeBalance = fmt.Errorf("%w: initial balance must not be negative", ErrInvalidAccount)
	ErrUnknownType     = fmt.Errorf("%w: unknown account type", ErrInvalidAccount)
	ErrMissingUser     = fmt.Errorf("%w: user id is required", ErrInvalidAccount)
	ErrSameAccount     = errors.New("source and destination must differ")

	// ErrInvalidTransfer is the class of errors for transfer requests the store refuses outright
	ErrInvalidTransfer    = errors.New("invalid transfer")
	ErrMissingTransaction = fmt.Errorf("%w: transaction id is required", ErrInvalidTransfer)
	ErrNonPositiveAmount  = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidTransfer)
	ErrTransferMismatch   = fmt.Errorf("%w: transaction id was applied with different accounts or amount", ErrInvalidTransfer)
)

// Account holds a balance owned by a user.
// Balance is never negative and Number is unique across all accounts.
type Account struct {
	ID                uuid.UUID       `db:"id"`
	UserID            uuid.UUID       `db:"user_id"`
	Number            string          `db:"number"`
	Type              Type            `db:"type"`
	Balance           decimal.Decimal `db:"balance"`
	Status            Status          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
	LastTransactionAt time.Time       `db:"last_transaction_at"`
}

func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// Side identifies which account of a transfer a failure refers to
type Side string

const (
	SideSource      Side = "source"
	SideDestination Side = "destination"
)

// FailureKind enumerates the business outcomes that reject a transfer.
// The zero value means the transfer was applied.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureAccountNotFound
	FailureInactiveAccount
	FailureInsufficientFunds
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return ""
	case FailureAccountNotFound:
		return "AccountNotFound"
	case FailureInactiveAccount:
		return "InactiveAccount"
	case FailureInsufficientFunds:
		return "InsufficientFunds"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// ParseFailureKind is the inverse of FailureKind.String
func ParseFailureKind(s string) (FailureKind, error) {
	for _, k := range []FailureKind{FailureNone, FailureAccountNotFound, FailureInactiveAccount, FailureInsufficientFunds} {
		if k.String() == s {
			return k, nil
		}
	}
	return FailureNone, fmt.Errorf("unknown transfer failure %q", s)
}

// Outcome is the result of an atomic transfer.
// Business rejections are reported here rather than as errors.
type Outcome struct {
	Kind FailureKind
	// Side is set for AccountNotFound and InactiveAccount
	Side Side
}

func (o Outcome) OK() bool {
	return o.Kind == FailureNone
}

func (o Outcome) String() string {
	if o.OK() {
		return "OK"
	}
	if o.Side != "" {
		return fmt.Sprintf("%s(%s)", o.Kind, o.Side)
	}
	return o.Kind.String()
}

func fail(kind FailureKind, side Side) Outcome {
	return Outcome{Kind: kind, Side: side}
}

// TransferRequest moves Amount from FromID to ToID.
// TransactionID tags the movement so applying it twice has no further effect.
type TransferRequest struct {
	TransactionID uuid.UUID
	FromID        uuid.UUID
	ToID          uuid.UUID
	Amount        decimal.Decimal
}

func (r TransferRequest) Validate() error {
	if r.TransactionID == uuid.Nil {
		return ErrMissingTransaction
	}
	if r.FromID == r.ToID {
		return ErrSameAccount
	}
	if !r.Amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	return nil
}

// sameMovement reports whether r moves the same money between the same accounts as applied
func (r TransferRequest) sameMovement(applied TransferRequest) bool {
	return r.FromID == applied.FromID && r.ToID == applied.ToID && r.Amount.Equal(applied.Amount)
}
