package ledger

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the system of record for account balances.
// Transfer is the only operation that changes a balance.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	Transfer(ctx context.Context, req TransferRequest) (Outcome, error)

	Create(ctx context.Context, account *Account) error
	NumberExists(ctx context.Context, number string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Account, error)

	// DeactivateStale flips up to limit ACTIVE accounts whose last transaction is older
	// than cutoff to INACTIVE and reports how many changed.
	DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// lockOrder returns the two ids in the order their locks must be taken.
// Every transfer between the same pair agrees on it regardless of direction.
func lockOrder(a, b uuid.UUID) (first, second uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// check runs the validation shared by every store once both accounts are locked
func check(req TransferRequest, from, to *Account) Outcome {
	switch {
	case from == nil:
		return fail(FailureAccountNotFound, SideSource)
	case to == nil:
		return fail(FailureAccountNotFound, SideDestination)
	case !from.Active():
		return fail(FailureInactiveAccount, SideSource)
	case !to.Active():
		return fail(FailureInactiveAccount, SideDestination)
	case from.Balance.LessThan(req.Amount):
		return fail(FailureInsufficientFunds, "")
	}
	return Outcome{}
}
