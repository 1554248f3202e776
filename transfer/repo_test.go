package transfer_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bank/testutil"
	"bank/transfer"
	"bank/transfer/options"
)

func TestBoltRepo(t *testing.T) {
	dir := t.TempDir()
	n := 0
	suite.Run(t, NewRepoSuite(t, func() transfer.Repo {
		n++
		repo, err := transfer.OpenBoltRepo(filepath.Join(dir, fmt.Sprintf("transactions-%d.db", n)))
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	}))
}

func TestPostgresRepo(t *testing.T) {
	db := testutil.Postgres(t)
	defer db.Close()

	suite.Run(t, NewRepoSuite(t, func() transfer.Repo {
		testutil.Truncate(t, db)
		return transfer.NewPostgresRepo(db)
	}))
}

func NewRepoSuite(t *testing.T, newRepo func() transfer.Repo) *RepoSuite {
	return &RepoSuite{
		Assertions: require.New(t),
		newRepo:    newRepo,
	}
}

type RepoSuite struct {
	suite.Suite
	*require.Assertions // default to require behavior

	newRepo      func() transfer.Repo
	repo         transfer.Repo
	ctx          context.Context
	accounts     []uuid.UUID
	transactions []*transfer.Transaction
}

func (s *RepoSuite) SetupTest() {
	s.repo = s.newRepo()
	s.ctx = context.Background()
	s.accounts = []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	s.transactions = nil

	// postgres keeps microseconds
	start := time.Now().UTC().Truncate(time.Second)
	for i := 1; i <= 10; i++ {
		created := start.Add(time.Duration(i) * time.Minute)
		t := &transfer.Transaction{
			ID:          uuid.New(),
			FromID:      s.accounts[i%3],
			ToID:        s.accounts[(i+1)%3],
			Amount:      decimal.NewFromInt32(int32(i*100 + 1)),
			Description: "rent",
			Type:        transfer.TypeTransfer,
			Status:      transfer.StatusInitiated,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
		s.NoError(s.repo.Create(s.ctx, t))
		s.transactions = append(s.transactions, t)
	}
}

func (s *RepoSuite) TestFindByID() {
	want := s.transactions[3]
	got, err := s.repo.FindByID(s.ctx, want.ID)
	s.NoError(err)
	s.Equal(want.ID, got.ID)
	s.Equal(want.FromID, got.FromID)
	s.Equal(want.ToID, got.ToID)
	s.True(want.Amount.Equal(got.Amount))
	s.Equal(want.Description, got.Description)
	s.Equal(transfer.StatusInitiated, got.Status)
	s.Equal(transfer.ReasonNone, got.FailureReason)
	s.True(want.CreatedAt.Equal(got.CreatedAt))

	_, err = s.repo.FindByID(s.ctx, uuid.New())
	s.Equal(transfer.ErrTransactionNotFound, err)
}

func (s *RepoSuite) TestAmountIsStoredExactly() {
	t := *s.transactions[0]
	t.ID = uuid.New()
	t.Amount = testutil.Decimal("100.12345")
	s.NoError(s.repo.Create(s.ctx, &t))

	got, err := s.repo.FindByID(s.ctx, t.ID)
	s.NoError(err)
	s.True(t.Amount.Equal(got.Amount), got.Amount.String())
}

func (s *RepoSuite) TestCompleteOnlyOnce() {
	t := *s.transactions[0]
	t.Status = transfer.StatusFailed
	t.FailureReason = transfer.ReasonInsufficientFunds
	t.UpdatedAt = t.CreatedAt.Add(time.Second)

	written, err := s.repo.Complete(s.ctx, &t)
	s.NoError(err)
	s.True(written)

	// a second writer loses and the first outcome stays
	t.Status = transfer.StatusSuccess
	t.FailureReason = transfer.ReasonNone
	written, err = s.repo.Complete(s.ctx, &t)
	s.NoError(err)
	s.False(written)

	got, err := s.repo.FindByID(s.ctx, t.ID)
	s.NoError(err)
	s.Equal(transfer.StatusFailed, got.Status)
	s.Equal(transfer.ReasonInsufficientFunds, got.FailureReason)
	s.True(t.CreatedAt.Add(time.Second).Equal(got.UpdatedAt))
}

func (s *RepoSuite) TestFindAll() {
	found, err := s.repo.Find(s.ctx)
	s.NoError(err)
	s.Len(found, len(s.transactions))
	for i, t := range found {
		s.Equal(s.transactions[i].ID, t.ID)
	}
}

func (s *RepoSuite) TestFindOptions() {
	for i := 0; i < 4; i++ {
		t := *s.transactions[i]
		t.Status = transfer.StatusSuccess
		written, err := s.repo.Complete(s.ctx, &t)
		s.NoError(err)
		s.True(written)
	}

	low, high := testutil.Decimal("201"), testutil.Decimal("401")
	for scenario, tc := range map[string]struct {
		opts *options.TransactionOptions
		want []*transfer.Transaction
	}{
		"by id": {
			opts: options.NewTransactionOptions().SetIDs(s.transactions[2].ID.String(), s.transactions[7].ID.String()),
			want: []*transfer.Transaction{s.transactions[2], s.transactions[7]},
		},
		"by account as sender or receiver": {
			opts: options.NewTransactionOptions().SetAccountIDs(s.accounts[0].String()),
			want: s.touching(s.accounts[0]),
		},
		"by status": {
			opts: options.NewTransactionOptions().SetStatuses(string(transfer.StatusSuccess)),
			want: s.transactions[:4],
		},
		"by account and status": {
			opts: options.NewTransactionOptions().
				SetAccountIDs(s.accounts[1].String()).
				SetStatuses(string(transfer.StatusSuccess)),
			want: filter(s.transactions[:4], s.accounts[1]),
		},
		"by amount range": {
			opts: options.NewTransactionOptions().SetAmountRange(
				options.NewDecimalRange(&low, &high),
			),
			want: s.transactions[1:4],
		},
		"by time range": {
			opts: options.NewTransactionOptions().SetTimeRange(
				&options.TimeRange{Low: &s.transactions[5].CreatedAt},
			),
			want: s.transactions[5:],
		},
		"nothing matches": {
			opts: options.NewTransactionOptions().SetAccountIDs(uuid.New().String()),
			want: nil,
		},
	} {
		found, err := s.repo.Find(s.ctx, tc.opts)
		s.NoError(err, scenario)
		s.Len(found, len(tc.want), scenario)
		for i, t := range found {
			s.Equal(tc.want[i].ID, t.ID, scenario)
		}
	}
}

func (s *RepoSuite) touching(account uuid.UUID) []*transfer.Transaction {
	return filter(s.transactions, account)
}

func filter(transactions []*transfer.Transaction, account uuid.UUID) []*transfer.Transaction {
	var result []*transfer.Transaction
	for _, t := range transactions {
		if t.FromID == account || t.ToID == account {
			result = append(result, t)
		}
	}
	return result
}
