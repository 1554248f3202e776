// Package gateway serves the ledger and transfer operations as HTTP/JSON.
// Handlers call the gRPC service implementations in process, so validation and
// error classification are shared with the gRPC API.
package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "bank/api/v1"
)

type Config struct {
	Ledger   api.LedgerServer
	Transfer api.TransferServer
	Logger   hclog.Logger
}

type Gateway struct {
	ledger   api.LedgerServer
	transfer api.TransferServer
	logger   hclog.Logger
}

func New(config Config) *Gateway {
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}
	return &Gateway{
		ledger:   config.Ledger,
		transfer: config.Transfer,
		logger:   config.Logger.Named("gateway"),
	}
}

// Routes returns the router with every endpoint registered
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(g.logRequests)

	r.Post("/accounts", g.CreateAccount)
	r.Get("/accounts/{id}", g.GetAccount)
	r.Get("/accounts/{id}/transactions", g.ListTransactions)
	r.Get("/users/{id}/accounts", g.ListAccounts)
	r.Post("/transfers", g.InitiateTransfer)
	r.Post("/transfers/{id}/execute", g.ExecuteTransfer)
	return r
}

func (g *Gateway) GetAccount(w http.ResponseWriter, r *http.Request) {
	res, err := g.ledger.GetAccount(r.Context(), &api.GetAccountRequest{Id: chi.URLParam(r, "id")})
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.respond(w, http.StatusOK, res.GetAccount())
}

func (g *Gateway) ListAccounts(w http.ResponseWriter, r *http.Request) {
	res, err := g.ledger.ListAccounts(r.Context(), &api.ListAccountsRequest{UserId: chi.URLParam(r, "id")})
	if err != nil {
		g.fail(w, r, err)
		return
	}
	accounts := res.Accounts
	if accounts == nil {
		accounts = []*api.Account{}
	}
	g.respond(w, http.StatusOK, accounts)
}

func (g *Gateway) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAccountRequest
	if !g.decode(w, r, &req) {
		return
	}
	res, err := g.ledger.CreateAccount(r.Context(), &req)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.respond(w, http.StatusCreated, res.GetAccount())
}

func (g *Gateway) InitiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req api.InitiateTransferRequest
	if !g.decode(w, r, &req) {
		return
	}
	res, err := g.transfer.InitiateTransfer(r.Context(), &req)
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.respond(w, http.StatusCreated, res)
}

// ExecuteTransfer answers 200 for both SUCCESS and FAILED; the body says which
func (g *Gateway) ExecuteTransfer(w http.ResponseWriter, r *http.Request) {
	res, err := g.transfer.ExecuteTransfer(r.Context(), &api.ExecuteTransferRequest{
		TransactionId: chi.URLParam(r, "id"),
	})
	if err != nil {
		g.fail(w, r, err)
		return
	}
	g.respond(w, http.StatusOK, res)
}

func (g *Gateway) ListTransactions(w http.ResponseWriter, r *http.Request) {
	res, err := g.transfer.ListTransactions(r.Context(), &api.ListTransactionsRequest{
		AccountId: chi.URLParam(r, "id"),
	})
	if err != nil {
		g.fail(w, r, err)
		return
	}
	entries := res.Entries
	if entries == nil {
		entries = []*api.StatementEntry{}
	}
	g.respond(w, http.StatusOK, entries)
}

func (g *Gateway) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		g.respond(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, err error) {
	st := status.Convert(err)
	code := httpStatus(st.Code())
	if code == http.StatusInternalServerError {
		g.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	g.respond(w, code, errorBody{Error: st.Message()})
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (g *Gateway) respond(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Warn("writing response", "error", err)
	}
}

func (g *Gateway) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		g.logger.Debug("handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
