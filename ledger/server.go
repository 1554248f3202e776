package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "bank/api/v1"
)

// Config used to create a new Server
type Config struct {
	Accounts *Accounts
}

// guarantee Server satisfies the api.LedgerServer interface
var _ api.LedgerServer = (*Server)(nil)

// Server exposes the ledger over gRPC
type Server struct {
	accounts *Accounts
}

func NewServer(config *Config) *Server {
	return &Server{accounts: config.Accounts}
}

func (s *Server) GetAccount(ctx context.Context, req *api.GetAccountRequest) (*api.GetAccountResponse, error) {
	id, err := parseID("id", req.Id)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.GetAccountResponse{Account: ToAPI(account)}, nil
}

func (s *Server) ListAccounts(ctx context.Context, req *api.ListAccountsRequest) (*api.ListAccountsResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListForUser(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	res := &api.ListAccountsResponse{}
	for _, a := range accounts {
		res.Accounts = append(res.Accounts, ToAPI(a))
	}
	return res, nil
}

func (s *Server) CreateAccount(ctx context.Context, req *api.CreateAccountRequest) (*api.CreateAccountResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		initial, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "parsing initial balance: %v", err)
		}
	}

	account, err := s.accounts.Open(ctx, OpenRequest{
		UserID:         userID,
		Type:           Type(req.Type),
		InitialBalance: initial,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.CreateAccountResponse{Account: ToAPI(account)}, nil
}

func (s *Server) Transfer(ctx context.Context, req *api.TransferRequest) (*api.TransferResponse, error) {
	var (
		r   TransferRequest
		err error
	)
	if r.TransactionID, err = parseID("transaction_id", req.TransactionId); err != nil {
		return nil, err
	}
	if r.FromID, err = parseID("from_id", req.FromId); err != nil {
		return nil, err
	}
	if r.ToID, err = parseID("to_id", req.ToId); err != nil {
		return nil, err
	}
	if r.Amount, err = decimal.NewFromString(req.Amount); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parsing amount: %v", err)
	}
	if err = r.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	outcome, err := s.accounts.Store.Transfer(ctx, r)
	if err != nil {
		return nil, toStatus(err)
	}

	res := &api.TransferResponse{Failure: outcome.Kind.String()}
	switch outcome.Side {
	case SideSource:
		res.AccountId = r.FromID.String()
	case SideDestination:
		res.AccountId = r.ToID.String()
	}
	return res, nil
}

// ToAPI converts an account into its wire form
func ToAPI(a *Account) *api.Account {
	return &api.Account{
		Id:                a.ID.String(),
		UserId:            a.UserID.String(),
		Number:            a.Number,
		Type:              string(a.Type),
		Balance:           a.Balance.String(),
		Status:            string(a.Status),
		CreatedAt:         a.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:         a.UpdatedAt.Format(time.RFC3339Nano),
		LastTransactionAt: a.LastTransactionAt.Format(time.RFC3339Nano),
	}
}

// FromAPI is the inverse of ToAPI
func FromAPI(a *api.Account) (*Account, error) {
	var (
		account Account
		err     error
	)
	if account.ID, err = uuid.Parse(a.Id); err != nil {
		return nil, err
	}
	if account.UserID, err = uuid.Parse(a.UserId); err != nil {
		return nil, err
	}
	if account.Balance, err = decimal.NewFromString(a.Balance); err != nil {
		return nil, err
	}
	for _, ts := range []struct {
		dst *time.Time
		src string
	}{
		{&account.CreatedAt, a.CreatedAt},
		{&account.UpdatedAt, a.UpdatedAt},
		{&account.LastTransactionAt, a.LastTransactionAt},
	} {
		if *ts.dst, err = time.Parse(time.RFC3339Nano, ts.src); err != nil {
			return nil, err
		}
	}
	account.Number = a.Number
	account.Type = Type(a.Type)
	account.Status = Status(a.Status)
	return &account, nil
}

func parseID(field, v string) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s %q", field, v)
	}
	return id, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidAccount), errors.Is(err, ErrSameAccount), errors.Is(err, ErrInvalidTransfer):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrDuplicateNumber):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
