package server

import (
	"context"
	"strings"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_auth "github.com/grpc-ecosystem/go-grpc-middleware/auth"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	api "bank/api/v1"
	"bank/ledger"
	"bank/transfer"
)

type Config struct {
	Accounts    *ledger.Accounts
	Coordinator *transfer.Coordinator
	Journal     CommitLog
	// nil disables authentication and authorization
	Authorizer Authorizer
	Logger     hclog.Logger
}

// CommitLog is the read side of the transfer journal
type CommitLog interface {
	Read(uint64) (*api.Record, error)
}

type Authorizer interface {
	Authorize(subject, object, action string) error
}

// NewGRPCServer registers every service the node offers on one grpc.Server
func NewGRPCServer(config *Config, opts ...grpc.ServerOption) (*grpc.Server, error) {
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	logger := config.Logger.Named("grpc")

	recovery := grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
		logger.Error("panic serving request", "panic", p)
		return status.Errorf(codes.Internal, "%v", p)
	})
	unary := []grpc.UnaryServerInterceptor{
		grpc_recovery.UnaryServerInterceptor(recovery),
		logUnary(logger),
	}
	stream := []grpc.StreamServerInterceptor{
		grpc_recovery.StreamServerInterceptor(recovery),
	}
	if config.Authorizer != nil {
		unary = append(unary,
			grpc_auth.UnaryServerInterceptor(authenticate),
			authorizeUnary(config.Authorizer),
		)
		stream = append(stream,
			grpc_auth.StreamServerInterceptor(authenticate),
			authorizeStream(config.Authorizer),
		)
	}
	opts = append(opts,
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(unary...)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(stream...)),
	)
	server := grpc.NewServer(opts...)

	if config.Accounts != nil {
		api.RegisterLedgerServer(server, ledger.NewServer(&ledger.Config{Accounts: config.Accounts}))
	}
	if config.Coordinator != nil {
		api.RegisterTransferServer(server, transfer.NewServer(config.Coordinator))
	}
	if config.Journal != nil {
		api.RegisterJournalServer(server, &journalServer{Config: config})
	}
	return server, nil
}

func logUnary(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		res, err := handler(ctx, req)
		code := status.Code(err)
		switch code {
		case codes.Internal, codes.Unknown:
			logger.Error("handled", "method", info.FullMethod, "code", code.String(), "took", time.Since(start), "error", err)
		default:
			logger.Debug("handled", "method", info.FullMethod, "code", code.String(), "took", time.Since(start))
		}
		return res, err
	}
}

// authenticate reads the subject out of the client's certificate
func authenticate(ctx context.Context) (context.Context, error) {
	p, ok := peer.FromContext(ctx)
	if !ok {
		return ctx, status.New(codes.Unknown, "couldn't find peer info").Err()
	}
	if p.AuthInfo == nil {
		return ctx, status.New(codes.Unauthenticated, "no transport security used").Err()
	}

	tlsInfo, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok || len(tlsInfo.State.VerifiedChains) == 0 || len(tlsInfo.State.VerifiedChains[0]) == 0 {
		return ctx, status.New(codes.Unauthenticated, "no verified client certificate").Err()
	}
	subject := tlsInfo.State.VerifiedChains[0][0].Subject.CommonName
	return context.WithValue(ctx, subjectContextKey{}, subject), nil
}

func authorizeUnary(a Authorizer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := authorize(ctx, a, info.FullMethod); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func authorizeStream(a Authorizer) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := authorize(ss.Context(), a, info.FullMethod); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

// authorize checks the caller against the service and method in fullMethod,
// e.g. /ledger.v1.Transfer/ExecuteTransfer
func authorize(ctx context.Context, a Authorizer, fullMethod string) error {
	object, action := splitMethod(fullMethod)
	return a.Authorize(subject(ctx), object, action)
}

func splitMethod(fullMethod string) (service, method string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[:i], fullMethod[i+1:]
	}
	return fullMethod, ""
}

func subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectContextKey{}).(string)
	return s
}

type subjectContextKey struct{}
