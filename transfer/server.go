package transfer

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

// guarantee Server satisfies the api.TransferServer interface
var _ api.TransferServer = (*Server)(nil)

// Server exposes the coordinator over gRPC
type Server struct {
	coordinator *Coordinator
}

func NewServer(coordinator *Coordinator) *Server {
	return &Server{coordinator: coordinator}
}

func (s *Server) InitiateTransfer(ctx context.Context, req *api.InitiateTransferRequest) (*api.TransferStatus, error) {
	from, err := parseID("from_id", req.FromId)
	if err != nil {
		return nil, err
	}
	to, err := parseID("to_id", req.ToId)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parsing amount: %v", err)
	}

	t, err := s.coordinator.Initiate(ctx, InitiateRequest{
		FromID:      from,
		ToID:        to,
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return StatusToAPI(t), nil
}

func (s *Server) ExecuteTransfer(ctx context.Context, req *api.ExecuteTransferRequest) (*api.TransferStatus, error) {
	id, err := parseID("transaction_id", req.TransactionId)
	if err != nil {
		return nil, err
	}

	t, err := s.coordinator.Execute(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return StatusToAPI(t), nil
}

func (s *Server) ListTransactions(ctx context.Context, req *api.ListTransactionsRequest) (*api.ListTransactionsResponse, error) {
	id, err := parseID("account_id", req.AccountId)
	if err != nil {
		return nil, err
	}

	entries, err := s.coordinator.ListSuccessful(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	res := &api.ListTransactionsResponse{}
	for _, e := range entries {
		res.Entries = append(res.Entries, &api.StatementEntry{
			TransactionId:         e.TransactionID.String(),
			CounterpartyAccountId: e.CounterpartyAccountID.String(),
			Direction:             string(e.Direction),
			Amount:                e.Amount.String(),
			Description:           e.Description,
			Timestamp:             e.Timestamp.Format(time.RFC3339Nano),
		})
	}
	return res, nil
}

// StatusToAPI converts a transaction into the status returned to callers
func StatusToAPI(t *Transaction) *api.TransferStatus {
	return &api.TransferStatus{
		TransactionId: t.ID.String(),
		Status:        string(t.Status),
		FailureReason: string(t.FailureReason),
		Timestamp:     t.UpdatedAt.Format(time.RFC3339Nano),
	}
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
	case errors.Is(err, ErrTransactionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidTransfer):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
