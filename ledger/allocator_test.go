package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"bank/ledger"
	"bank/testutil"
)

// numberSet is a NumberChecker over an in-memory set
type numberSet struct {
	mu  sync.Mutex
	set map[string]bool
	err error
}

func (n *numberSet) NumberExists(_ context.Context, number string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.set[number], n.err
}

func (n *numberSet) add(number string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.set[number] = true
}

func TestRandomSourceFormat(t *testing.T) {
	src := ledger.NewRandomSource(rand.New(rand.NewSource(1)))
	pattern := regexp.MustCompile(`^[0-9]{10}$`)
	for i := 0; i < 100; i++ {
		require.Regexp(t, pattern, src.Next())
	}

	// same seed, same sequence
	a := ledger.NewRandomSource(rand.New(rand.NewSource(42)))
	b := ledger.NewRandomSource(rand.New(rand.NewSource(42)))
	require.Equal(t, a.Next(), b.Next())
}

func TestAllocatorNeverRepeats(t *testing.T) {
	taken := &numberSet{set: map[string]bool{}}
	// small pool forces collisions on almost every call
	src := ledger.NewSequenceSource("0000000001", "0000000002", "0000000001", "0000000003", "0000000002", "0000000004")
	alloc := ledger.NewAllocator(taken, ledger.AllocatorConfig{Source: src})

	var got []string
	for i := 0; i < 4; i++ {
		number, err := alloc.Allocate(context.Background())
		require.NoError(t, err)
		require.False(t, taken.set[number])
		taken.add(number)
		got = append(got, number)
	}
	require.ElementsMatch(t, []string{"0000000001", "0000000002", "0000000003", "0000000004"}, got)
}

func TestAllocatorLogsRepeatedCollisions(t *testing.T) {
	taken := &numberSet{set: map[string]bool{"1111111111": true}}
	src := ledger.NewSequenceSource("1111111111", "1111111111", "1111111111", "1111111111", "2222222222")

	var out bytes.Buffer
	alloc := ledger.NewAllocator(taken, ledger.AllocatorConfig{
		Source:    src,
		WarnEvery: 2,
		Logger:    hclog.New(&hclog.LoggerOptions{Output: &out, Level: hclog.Warn}),
	})

	number, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2222222222", number)
	require.Equal(t, 2, bytes.Count(out.Bytes(), []byte("account number collisions")))
}

func TestAllocatorStopsOnCancel(t *testing.T) {
	taken := &numberSet{set: map[string]bool{"1111111111": true}}
	alloc := ledger.NewAllocator(taken, ledger.AllocatorConfig{Source: ledger.NewSequenceSource("1111111111")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := alloc.Allocate(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestAllocatorPropagatesCheckerErrors(t *testing.T) {
	boom := errors.New("boom")
	alloc := ledger.NewAllocator(&numberSet{err: boom}, ledger.AllocatorConfig{})

	_, err := alloc.Allocate(context.Background())
	require.Equal(t, boom, err)
}

func TestOpenAccount(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, store *ledger.MemoryStore){
		"opens an active account":          testOpen,
		"rejects invalid requests":         testOpenInvalid,
		"rejects unknown users":            testOpenUnknownUser,
		"retries when the number is taken": testOpenRetriesDuplicate,
		"lists accounts in opening order":  testListForUser,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, ledger.NewMemoryStore())
		})
	}
}

func testOpen(t *testing.T, store *ledger.MemoryStore) {
	accounts := ledger.NewAccounts(ledger.AccountsConfig{Store: store})

	userID := uuid.New()
	account, err := accounts.Open(context.Background(), ledger.OpenRequest{
		UserID:         userID,
		Type:           ledger.TypeSavings,
		InitialBalance: testutil.Decimal("1000.00"),
	})
	require.NoError(t, err)
	require.Equal(t, ledger.StatusActive, account.Status)
	require.Equal(t, userID, account.UserID)
	require.Len(t, account.Number, ledger.NumberLength)
	require.Equal(t, account.CreatedAt, account.LastTransactionAt)

	got, err := accounts.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, account, got)
}

func testOpenInvalid(t *testing.T, store *ledger.MemoryStore) {
	accounts := ledger.NewAccounts(ledger.AccountsConfig{Store: store})
	ctx := context.Background()

	_, err := accounts.Open(ctx, ledger.OpenRequest{
		UserID: uuid.New(), Type: ledger.TypeChecking, InitialBalance: testutil.Decimal("-1"),
	})
	require.Equal(t, ledger.ErrNegativeBalance, err)

	_, err = accounts.Open(ctx, ledger.OpenRequest{
		UserID: uuid.New(), Type: "BROKERAGE",
	})
	require.Equal(t, ledger.ErrUnknownType, err)

	_, err = accounts.Open(ctx, ledger.OpenRequest{Type: ledger.TypeChecking})
	require.True(t, errors.Is(err, ledger.ErrInvalidAccount))
}

type users map[uuid.UUID]bool

func (u users) UserExists(_ context.Context, id uuid.UUID) (bool, error) {
	return u[id], nil
}

func testOpenUnknownUser(t *testing.T, store *ledger.MemoryStore) {
	known := uuid.New()
	accounts := ledger.NewAccounts(ledger.AccountsConfig{
		Store: store,
		Users: users{known: true},
	})

	_, err := accounts.Open(context.Background(), ledger.OpenRequest{UserID: uuid.New(), Type: ledger.TypeChecking})
	require.Equal(t, ledger.ErrUserNotFound, err)

	_, err = accounts.Open(context.Background(), ledger.OpenRequest{UserID: known, Type: ledger.TypeChecking})
	require.NoError(t, err)
}

// racyChecker never reports a number as taken, so only the insert catches duplicates
type racyChecker struct{}

func (racyChecker) NumberExists(context.Context, string) (bool, error) { return false, nil }

func testOpenRetriesDuplicate(t *testing.T, store *ledger.MemoryStore) {
	src := ledger.NewSequenceSource("5555555555", "5555555555", "6666666666")
	accounts := ledger.NewAccounts(ledger.AccountsConfig{
		Store:     store,
		Allocator: ledger.NewAllocator(racyChecker{}, ledger.AllocatorConfig{Source: src}),
	})
	ctx := context.Background()

	first, err := accounts.Open(ctx, ledger.OpenRequest{UserID: uuid.New(), Type: ledger.TypeChecking})
	require.NoError(t, err)
	require.Equal(t, "5555555555", first.Number)

	second, err := accounts.Open(ctx, ledger.OpenRequest{UserID: uuid.New(), Type: ledger.TypeChecking})
	require.NoError(t, err)
	require.Equal(t, "6666666666", second.Number)
}

func testListForUser(t *testing.T, store *ledger.MemoryStore) {
	accounts := ledger.NewAccounts(ledger.AccountsConfig{Store: store})
	ctx := context.Background()
	userID := uuid.New()

	var want []uuid.UUID
	for _, typ := range []ledger.Type{ledger.TypeChecking, ledger.TypeSavings} {
		a, err := accounts.Open(ctx, ledger.OpenRequest{UserID: userID, Type: typ})
		require.NoError(t, err)
		want = append(want, a.ID)
	}

	got, err := accounts.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.ElementsMatch(t, want, []uuid.UUID{got[0].ID, got[1].ID})
}
