package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/shopspring/decimal"

	api "bank/api/v1"
	"bank/ledger"
	"bank/transfer/options"
)

// Ledger is what the coordinator needs from the account ledger.
// Both ledger.Store and ledger.Client satisfy it.
type Ledger interface {
	Get(ctx context.Context, id uuid.UUID) (*ledger.Account, error)
	Transfer(ctx context.Context, req ledger.TransferRequest) (ledger.Outcome, error)
}

// Journal records terminal outcomes for audit
type Journal interface {
	Append(*api.Record) (uint64, error)
}

const DefaultTimeout = 5 * time.Second

type Config struct {
	Repo   Repo
	Ledger Ledger
	// optional
	Journal Journal
	// bound on every ledger call
	Timeout time.Duration
	Logger  hclog.Logger
	Now     func() time.Time
}

// Coordinator drives a transaction from INITIATED to SUCCESS or FAILED.
// The ledger's atomic transfer is the only step that moves money.
type Coordinator struct {
	Config
	locks *keyedMutex
}

func NewCoordinator(config Config) *Coordinator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Coordinator{
		Config: config,
		locks:  newKeyedMutex(),
	}
}

type InitiateRequest struct {
	FromID      uuid.UUID
	ToID        uuid.UUID
	Amount      decimal.Decimal
	Description string
}

func (r InitiateRequest) Validate() error {
	switch {
	case r.FromID == uuid.Nil, r.ToID == uuid.Nil:
		return ErrMissingAccount
	case r.FromID == r.ToID:
		return ErrSameAccount
	case !r.Amount.IsPositive():
		return ErrInvalidAmount
	}
	return nil
}

// Initiate records the intent to transfer. No money moves.
func (c *Coordinator) Initiate(ctx context.Context, req InitiateRequest) (*Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := c.Now()
	t := &Transaction{
		ID:          uuid.New(),
		FromID:      req.FromID,
		ToID:        req.ToID,
		Amount:      req.Amount,
		Description: req.Description,
		Type:        TypeTransfer,
		Status:      StatusInitiated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Repo.Create(ctx, t); err != nil {
		return nil, err
	}

	c.Logger.Info("transfer initiated", "transaction", t.ID, "from", t.FromID, "to", t.ToID, "amount", t.Amount)
	return t, nil
}

// Execute runs the transfer once and returns its terminal record.
// Executing a transaction that already finished returns the stored record unchanged.
// Business failures and an unreachable ledger are recorded as FAILED, not returned
// as errors; ErrTransactionNotFound is.
func (c *Coordinator) Execute(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	t, err := c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return t, nil
	}

	unlock := c.locks.Lock(id)
	defer unlock()

	// a concurrent Execute may have finished while we waited
	t, err = c.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status.Terminal() {
		return t, nil
	}

	// from here on the caller going away must not strand the transaction
	ctx = context.WithoutCancel(ctx)

	reason := c.apply(ctx, t)
	return c.complete(ctx, t, reason)
}

// apply validates against the ledger and asks it to move the money
func (c *Coordinator) apply(ctx context.Context, t *Transaction) Reason {
	from, reason := c.account(ctx, t.ID, t.FromID)
	if reason != ReasonNone {
		return reason
	}
	to, reason := c.account(ctx, t.ID, t.ToID)
	if reason != ReasonNone {
		return reason
	}

	// fast path only; the atomic transfer checks all of this again under its locks
	switch {
	case !from.Active(), !to.Active():
		return ReasonInactiveAccount
	case from.Balance.LessThan(t.Amount):
		return ReasonInsufficientFunds
	}

	outcome, err := c.transfer(ctx, ledger.TransferRequest{
		TransactionID: t.ID,
		FromID:        t.FromID,
		ToID:          t.ToID,
		Amount:        t.Amount,
	})
	if err != nil {
		c.Logger.Error("ledger transfer failed", "transaction", t.ID, "error", err)
		return ReasonDownstreamUnavailable
	}
	if !outcome.OK() {
		c.Logger.Info("ledger rejected transfer", "transaction", t.ID, "outcome", outcome.String())
	}
	return reasonFor(outcome)
}

func (c *Coordinator) account(ctx context.Context, txID, id uuid.UUID) (*ledger.Account, Reason) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	account, err := c.Ledger.Get(ctx, id)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return nil, ReasonAccountNotFound
	}
	if err != nil {
		c.Logger.Error("reading account from ledger", "transaction", txID, "account", id, "error", err)
		return nil, ReasonDownstreamUnavailable
	}
	return account, ReasonNone
}

// transfer calls the ledger and retries once if the first attempt times out.
// The retry is safe because the ledger applies a transaction id at most once.
func (c *Coordinator) transfer(ctx context.Context, req ledger.TransferRequest) (ledger.Outcome, error) {
	var (
		outcome ledger.Outcome
		err     error
	)
	for attempt := 1; attempt <= 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.Timeout)
		outcome, err = c.Ledger.Transfer(callCtx, req)
		cancel()

		if err == nil || !errors.Is(err, context.DeadlineExceeded) {
			return outcome, err
		}
		c.Logger.Warn("ledger transfer timed out", "transaction", req.TransactionID, "attempt", attempt)
	}
	return outcome, err
}

func reasonFor(o ledger.Outcome) Reason {
	switch o.Kind {
	case ledger.FailureNone:
		return ReasonNone
	case ledger.FailureAccountNotFound:
		return ReasonAccountNotFound
	case ledger.FailureInactiveAccount:
		return ReasonInactiveAccount
	case ledger.FailureInsufficientFunds:
		return ReasonInsufficientFunds
	}
	return ReasonDownstreamUnavailable
}

func (c *Coordinator) complete(ctx context.Context, t *Transaction, reason Reason) (*Transaction, error) {
	t.Status = StatusSuccess
	if reason != ReasonNone {
		t.Status = StatusFailed
	}
	t.FailureReason = reason
	t.UpdatedAt = c.Now()

	written, err := c.Repo.Complete(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("recording transfer outcome: %w", err)
	}
	if !written {
		// another instance finished it first; its record wins
		return c.Repo.FindByID(ctx, t.ID)
	}

	c.Logger.Info("transfer completed", "transaction", t.ID, "status", t.Status, "reason", t.FailureReason)
	c.record(t)
	return t, nil
}

func (c *Coordinator) record(t *Transaction) {
	if c.Journal == nil {
		return
	}

	b, err := proto.Marshal(&api.TransferOutcome{
		TransactionId: t.ID.String(),
		FromId:        t.FromID.String(),
		ToId:          t.ToID.String(),
		Amount:        t.Amount.String(),
		Status:        string(t.Status),
		FailureReason: string(t.FailureReason),
		CompletedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err == nil {
		_, err = c.Journal.Append(&api.Record{Value: b})
	}
	if err != nil {
		c.Logger.Error("journaling transfer outcome", "transaction", t.ID, "error", err)
	}
}

// Get returns the stored transaction
func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return c.Repo.FindByID(ctx, id)
}

// ListSuccessful returns the SUCCESS transactions touching accountID, oldest first
func (c *Coordinator) ListSuccessful(ctx context.Context, accountID uuid.UUID) ([]StatementEntry, error) {
	opts := options.NewTransactionOptions().
		SetAccountIDs(accountID.String()).
		SetStatuses(string(StatusSuccess))

	transactions, err := c.Repo.Find(ctx, opts)
	if err != nil {
		return nil, err
	}

	entries := make([]StatementEntry, 0, len(transactions))
	for _, t := range transactions {
		entries = append(entries, entryFor(accountID, t))
	}
	return entries, nil
}
