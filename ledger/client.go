package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	grpc_retry "github.com/grpc-ecosystem/go-grpc-middleware/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "bank/api/v1"
)

// Client reaches a remote ledger over gRPC.
// It offers the same Get and Transfer calls as a local Store.
type Client struct {
	client api.LedgerClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{client: api.NewLedgerClient(cc)}
}

// DialOptions installs the retry interceptor the client relies on.
// Retries are off unless a call opts in, so Transfer is never retried here.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithUnaryInterceptor(grpc_retry.UnaryClientInterceptor(
			grpc_retry.WithCodes(codes.Unavailable),
			grpc_retry.WithBackoff(grpc_retry.BackoffLinear(50 * time.Millisecond)),
		)),
	}
}

func (c *Client) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	res, err := c.client.GetAccount(ctx,
		&api.GetAccountRequest{Id: id.String()},
		grpc_retry.WithMax(3),
	)
	if err != nil {
		return nil, fromStatus(err)
	}
	return FromAPI(res.GetAccount())
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (Outcome, error) {
	res, err := c.client.Transfer(ctx, &api.TransferRequest{
		TransactionId: req.TransactionID.String(),
		FromId:        req.FromID.String(),
		ToId:          req.ToID.String(),
		Amount:        req.Amount.String(),
	})
	if err != nil {
		return Outcome{}, fromStatus(err)
	}

	kind, err := ParseFailureKind(res.Failure)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Kind: kind}
	switch res.AccountId {
	case "":
	case req.FromID.String():
		outcome.Side = SideSource
	case req.ToID.String():
		outcome.Side = SideDestination
	}
	return outcome, nil
}

// fromStatus maps gRPC errors back onto the errors a local Store returns
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return ErrAccountNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("ledger: %s: %w", st.Message(), ErrInvalidTransfer)
	case codes.DeadlineExceeded:
		return fmt.Errorf("ledger: %s: %w", st.Message(), context.DeadlineExceeded)
	case codes.Canceled:
		return fmt.Errorf("ledger: %s: %w", st.Message(), context.Canceled)
	}
	return fmt.Errorf("ledger: %w", err)
}
