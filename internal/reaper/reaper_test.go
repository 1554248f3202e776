package reaper_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bank/internal/reaper"
	"bank/ledger"
	"bank/testutil"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) DeactivateStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Int(0), args.Error(1)
}

func TestSweepBatches(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-10 * time.Minute)

	store := &mockStore{}
	store.On("DeactivateStale", mock.Anything, cutoff, 2).Return(2, nil).Twice()
	store.On("DeactivateStale", mock.Anything, cutoff, 2).Return(1, nil).Once()

	r := reaper.New(reaper.Config{
		Store:      store,
		StaleAfter: 10 * time.Minute,
		BatchSize:  2,
		Now:        func() time.Time { return now },
	})
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, n)
	store.AssertExpectations(t)
}

func TestSweepError(t *testing.T) {
	store := &mockStore{}
	store.On("DeactivateStale", mock.Anything, mock.Anything, reaper.DefaultBatchSize).
		Return(reaper.DefaultBatchSize, nil).Once()
	store.On("DeactivateStale", mock.Anything, mock.Anything, reaper.DefaultBatchSize).
		Return(0, errors.New("connection reset")).Once()

	n, err := reaper.New(reaper.Config{Store: store}).Sweep(context.Background())
	require.Error(t, err)
	require.Equal(t, reaper.DefaultBatchSize, n)
	store.AssertExpectations(t)
}

func TestSweepMemoryStore(t *testing.T) {
	now := time.Now().UTC()
	store := ledger.NewMemoryStore()

	var stale, fresh []uuid.UUID
	for i := 0; i < 7; i++ {
		last := now.Add(-time.Hour)
		if i%2 == 0 {
			last = now
		}
		account := &ledger.Account{
			ID:                uuid.New(),
			UserID:            uuid.New(),
			Number:            fmt.Sprintf("%010d", i),
			Type:              ledger.TypeChecking,
			Balance:           testutil.Decimal("10"),
			Status:            ledger.StatusActive,
			CreatedAt:         last,
			UpdatedAt:         last,
			LastTransactionAt: last,
		}
		require.NoError(t, store.Create(context.Background(), account))
		if i%2 == 0 {
			fresh = append(fresh, account.ID)
		} else {
			stale = append(stale, account.ID)
		}
	}

	r := reaper.New(reaper.Config{Store: store, BatchSize: 2})
	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, len(stale), n)

	for _, id := range stale {
		account, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, ledger.StatusInactive, account.Status)
	}
	for _, id := range fresh {
		account, err := store.Get(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, ledger.StatusActive, account.Status)
	}

	// nothing left to do
	n, err = r.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRunStopsWithContext(t *testing.T) {
	store := &mockStore{}
	swept := make(chan struct{}, 10)
	store.On("DeactivateStale", mock.Anything, mock.Anything, mock.Anything).
		Return(0, nil).
		Run(func(mock.Arguments) { swept <- struct{}{} })

	r := reaper.New(reaper.Config{Store: store, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	<-swept
	<-swept
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
