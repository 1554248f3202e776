package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps accounts in process memory.
// Each account has its own mutex; a transfer holds both in lockOrder.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*entry
	numbers  map[string]uuid.UUID

	// transfers already applied by transaction id, guarded by the account locks of
	// the pair plus appliedMu for the map itself
	appliedMu sync.Mutex
	applied   map[uuid.UUID]TransferRequest

	now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	account Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]*entry),
		numbers:  make(map[string]uuid.UUID),
		applied:  make(map[uuid.UUID]TransferRequest),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) lookup(id uuid.UUID) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id]
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Account, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, ErrAccountNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	account := e.account
	return &account, nil
}

func (s *MemoryStore) Transfer(ctx context.Context, req TransferRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	from, to := s.lookup(req.FromID), s.lookup(req.ToID)
	if from == nil {
		return fail(FailureAccountNotFound, SideSource), nil
	}
	if to == nil {
		return fail(FailureAccountNotFound, SideDestination), nil
	}

	first, second := from, to
	if a, _ := lockOrder(req.FromID, req.ToID); a != req.FromID {
		first, second = to, from
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	s.appliedMu.Lock()
	prev, done := s.applied[req.TransactionID]
	s.appliedMu.Unlock()
	if done {
		if !req.sameMovement(prev) {
			return Outcome{}, ErrTransferMismatch
		}
		return Outcome{}, nil
	}

	outcome := check(req, &from.account, &to.account)
	if !outcome.OK() {
		return outcome, nil
	}

	now := s.now()
	from.account.Balance = from.account.Balance.Sub(req.Amount)
	to.account.Balance = to.account.Balance.Add(req.Amount)
	for _, a := range []*Account{&from.account, &to.account} {
		a.UpdatedAt = now
		a.LastTransactionAt = now
	}

	s.appliedMu.Lock()
	s.applied[req.TransactionID] = req
	s.appliedMu.Unlock()

	return Outcome{}, nil
}

func (s *MemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.numbers[account.Number]; ok {
		return ErrDuplicateNumber
	}
	s.numbers[account.Number] = account.ID
	s.accounts[account.ID] = &entry{account: *account}
	return nil
}

func (s *MemoryStore) NumberExists(_ context.Context, number string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.numbers[number]
	return ok, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*Account, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.accounts))
	for _, e := range s.accounts {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var result []*Account
	for _, e := range entries {
		e.mu.Lock()
		account := e.account
		e.mu.Unlock()
		if account.UserID == userID {
			result = append(result, &account)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.accounts))
	for _, e := range s.accounts {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	n := 0
	now := s.now()
	for _, e := range entries {
		if limit > 0 && n >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}

		e.mu.Lock()
		if e.account.Active() && e.account.LastTransactionAt.Before(cutoff) {
			e.account.Status = StatusInactive
			e.account.UpdatedAt = now
			n++
		}
		e.mu.Unlock()
	}
	return n, nil
}
