package agent

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	"github.com/soheilhy/cmux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"bank/internal/auth"
	"bank/internal/gateway"
	"bank/internal/journal"
	"bank/internal/reaper"
	"bank/internal/server"
	"bank/ledger"
	"bank/postgres"
	"bank/transfer"
)

type Config struct {
	ServerTLSConfig *tls.Config
	// used when dialing a remote ledger
	PeerTLSConfig *tls.Config
	// holds the journal and, without Postgres, the transaction database
	DataDir string
	// address gRPC and the HTTP gateway share, e.g. "127.0.0.1:8400"
	BindAddr string
	// nil or unconfigured keeps accounts in memory and transactions in DataDir
	Postgres *postgres.Config
	// when set, transfers go to the ledger at this address instead of the local store
	LedgerAddr string
	// when set, new accounts are checked against this user service
	UserServiceURL string
	// authorization config files; both empty disables ACLs
	ACLModelFile  string
	ACLPolicyFile string

	LedgerTimeout time.Duration
	Reaper        struct {
		Interval   time.Duration
		StaleAfter time.Duration
		BatchSize  int
	}

	Logger hclog.Logger
}

type Agent struct {
	Config Config

	logger hclog.Logger
	// gRPC and HTTP share one listener
	listener net.Listener
	mux      cmux.CMux
	grpcLn   net.Listener
	httpLn   net.Listener

	db          *sqlx.DB
	store       ledger.Store
	repo        transfer.Repo
	closeRepo   func() error
	ledgerConn  *grpc.ClientConn
	journal     *journal.Journal
	accounts    *ledger.Accounts
	coordinator *transfer.Coordinator

	server  *grpc.Server
	gateway *http.Server

	stopReaper context.CancelFunc
	reaperDone chan struct{}

	shutdown     bool
	shutdownLock sync.Mutex
}

// New starts every component in order and begins serving
func New(config Config) (*Agent, error) {
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	a := &Agent{
		Config: config,
		logger: config.Logger,
	}
	setup := []func() error{
		// order matters here
		a.setupMux,
		a.setupStorage,
		a.setupJournal,
		a.setupLedger,
		a.setupCoordinator,
		a.setupServer,
		a.setupGateway,
		a.setupReaper,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			_ = a.Shutdown()
			return nil, err
		}
	}

	go a.serve()
	return a, nil
}

// Addr is where clients reach the agent
func (a *Agent) Addr() string {
	return a.Config.BindAddr
}

func (a *Agent) serve() {
	if err := a.mux.Serve(); err != nil && !a.isShutdown() {
		a.logger.Error("serving", "error", err)
		_ = a.Shutdown()
	}
}

func (a *Agent) setupMux() error {
	ln, err := net.Listen("tcp", a.Config.BindAddr)
	if err != nil {
		return err
	}
	a.Config.BindAddr = ln.Addr().String()
	a.listener = ln
	a.mux = cmux.New(ln)

	// plain HTTP/1 goes to the gateway, so match it first; everything else is gRPC
	a.httpLn = a.mux.Match(cmux.HTTP1Fast())
	a.grpcLn = a.mux.Match(cmux.Any())
	return nil
}

func (a *Agent) setupStorage() error {
	if a.Config.Postgres != nil && a.Config.Postgres.Configured() {
		db, err := postgres.Connect(a.Config.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.db = db
		a.store = ledger.NewPostgresStore(db)
		a.repo = transfer.NewPostgresRepo(db)
		a.closeRepo = func() error { return nil }
		a.logger.Info("using postgres", "host", a.Config.Postgres.Host, "db", a.Config.Postgres.DatabaseName)
		return nil
	}

	if err := os.MkdirAll(a.Config.DataDir, 0755); err != nil {
		return err
	}
	repo, err := transfer.OpenBoltRepo(filepath.Join(a.Config.DataDir, "transactions.db"))
	if err != nil {
		return err
	}
	a.store = ledger.NewMemoryStore()
	a.repo = repo
	a.closeRepo = repo.Close
	a.logger.Warn("postgres not configured, accounts are kept in memory", "data_dir", a.Config.DataDir)
	return nil
}

func (a *Agent) setupJournal() error {
	c := journal.Config{Logger: a.logger}
	j, err := journal.Open(filepath.Join(a.Config.DataDir, "journal"), c)
	if err != nil {
		return err
	}
	a.journal = j
	return nil
}

func (a *Agent) setupLedger() error {
	config := ledger.AccountsConfig{
		Store:  a.store,
		Logger: a.logger.Named("accounts"),
	}
	if a.Config.UserServiceURL != "" {
		config.Users = ledger.NewHTTPUserDirectory(a.Config.UserServiceURL)
	}
	a.accounts = ledger.NewAccounts(config)
	return nil
}

func (a *Agent) setupCoordinator() error {
	var l transfer.Ledger = a.store
	if a.Config.LedgerAddr != "" {
		opts := ledger.DialOptions()
		if a.Config.PeerTLSConfig != nil {
			opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(a.Config.PeerTLSConfig)))
		} else {
			opts = append(opts, grpc.WithInsecure())
		}
		conn, err := grpc.Dial(a.Config.LedgerAddr, opts...)
		if err != nil {
			return fmt.Errorf("dialing ledger: %w", err)
		}
		a.ledgerConn = conn
		l = ledger.NewClient(conn)
	}

	a.coordinator = transfer.NewCoordinator(transfer.Config{
		Repo:    a.repo,
		Ledger:  l,
		Journal: a.journal,
		Timeout: a.Config.LedgerTimeout,
		Logger:  a.logger.Named("coordinator"),
	})
	return nil
}

func (a *Agent) setupServer() error {
	config := &server.Config{
		Accounts:    a.accounts,
		Coordinator: a.coordinator,
		Journal:     a.journal,
		Logger:      a.logger,
	}
	if a.Config.ACLModelFile != "" && a.Config.ACLPolicyFile != "" {
		config.Authorizer = auth.New(a.Config.ACLModelFile, a.Config.ACLPolicyFile)
	}

	var opts []grpc.ServerOption
	if a.Config.ServerTLSConfig != nil {
		opts = append(opts, grpc.Creds(credentials.NewTLS(a.Config.ServerTLSConfig)))
	}

	var err error
	a.server, err = server.NewGRPCServer(config, opts...)
	if err != nil {
		return err
	}

	go func() {
		if err := a.server.Serve(a.grpcLn); err != nil && !a.isShutdown() {
			a.logger.Error("grpc server stopped", "error", err)
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) setupGateway() error {
	g := gateway.New(gateway.Config{
		Ledger:   ledger.NewServer(&ledger.Config{Accounts: a.accounts}),
		Transfer: transfer.NewServer(a.coordinator),
		Logger:   a.logger,
	})
	a.gateway = &http.Server{Handler: g.Routes()}
	go func() {
		err := a.gateway.Serve(a.httpLn)
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !a.isShutdown() {
			a.logger.Error("gateway stopped", "error", err)
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) setupReaper() error {
	r := reaper.New(reaper.Config{
		Store:      a.store,
		Interval:   a.Config.Reaper.Interval,
		StaleAfter: a.Config.Reaper.StaleAfter,
		BatchSize:  a.Config.Reaper.BatchSize,
		Logger:     a.logger.Named("reaper"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.stopReaper = cancel
	a.reaperDone = make(chan struct{})
	go func() {
		defer close(a.reaperDone)
		r.Run(ctx)
	}()
	return nil
}

func (a *Agent) isShutdown() bool {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	return a.shutdown
}

// Shutdown stops serving and closes storage. Calling it again is a no-op.
func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()

	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		func() error {
			if a.stopReaper != nil {
				a.stopReaper()
				<-a.reaperDone
			}
			return nil
		},
		func() error {
			if a.gateway == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return a.gateway.Shutdown(ctx)
		},
		func() error {
			if a.server != nil {
				stopGRPC(a.server, 5*time.Second)
			}
			return nil
		},
		func() error {
			if a.listener != nil {
				_ = a.listener.Close()
			}
			return nil
		},
		func() error {
			if a.ledgerConn != nil {
				return a.ledgerConn.Close()
			}
			return nil
		},
		func() error {
			if a.journal != nil {
				return a.journal.Close()
			}
			return nil
		},
		func() error {
			if a.closeRepo != nil {
				return a.closeRepo()
			}
			return nil
		},
		func() error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// stopGRPC drains in-flight calls, cutting open streams once timeout passes
func stopGRPC(s *grpc.Server, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		s.Stop()
	}
}
