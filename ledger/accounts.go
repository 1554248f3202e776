package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/shopspring/decimal"
)

// UserDirectory answers whether a user exists.
// It is served by the external user service.
type UserDirectory interface {
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type AccountsConfig struct {
	Store     Store
	Allocator *Allocator
	// optional; when nil every user id is accepted
	Users  UserDirectory
	Logger hclog.Logger
	Now    func() time.Time
}

// Accounts opens accounts and serves account reads
type Accounts struct {
	AccountsConfig
}

func NewAccounts(config AccountsConfig) *Accounts {
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	if config.Allocator == nil {
		config.Allocator = NewAllocator(config.Store, AllocatorConfig{Logger: config.Logger})
	}
	return &Accounts{config}
}

type OpenRequest struct {
	UserID         uuid.UUID
	Type           Type
	InitialBalance decimal.Decimal
}

// Open creates an ACTIVE account with a freshly allocated number
func (a *Accounts) Open(ctx context.Context, req OpenRequest) (*Account, error) {
	if req.UserID == uuid.Nil {
		return nil, ErrMissingUser
	}
	if !req.Type.Valid() {
		return nil, ErrUnknownType
	}
	if req.InitialBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}

	if a.Users != nil {
		ok, err := a.Users.UserExists(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("validating user: %w", err)
		}
		if !ok {
			return nil, ErrUserNotFound
		}
	}

	for {
		number, err := a.Allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		now := a.Now()
		account := &Account{
			ID:                uuid.New(),
			UserID:            req.UserID,
			Number:            number,
			Type:              req.Type,
			Balance:           req.InitialBalance,
			Status:            StatusActive,
			CreatedAt:         now,
			UpdatedAt:         now,
			LastTransactionAt: now,
		}

		err = a.Store.Create(ctx, account)
		if errors.Is(err, ErrDuplicateNumber) {
			// lost a race with a concurrent allocation
			a.Logger.Debug("account number taken on insert, retrying", "number", number)
			continue
		}
		if err != nil {
			return nil, err
		}

		a.Logger.Info("opened account", "account", account.ID, "user", account.UserID, "type", account.Type)
		return account, nil
	}
}

func (a *Accounts) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return a.Store.Get(ctx, id)
}

func (a *Accounts) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	return a.Store.ListByUser(ctx, userID)
}
