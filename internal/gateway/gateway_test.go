package gateway_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	api "bank/api/v1"
	"bank/internal/gateway"
	"bank/ledger"
	"bank/transfer"
)

func TestGateway(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, srv *httptest.Server){
		"open accounts and transfer":       testTransferFlow,
		"list accounts for a user":         testListAccounts,
		"errors map to http statuses":      testErrors,
		"empty statement is an empty list": testEmptyStatement,
	} {
		t.Run(scenario, func(t *testing.T) {
			srv := setup(t)
			defer srv.Close()
			fn(t, srv)
		})
	}
}

func setup(t *testing.T) *httptest.Server {
	t.Helper()

	repo, err := transfer.OpenBoltRepo(filepath.Join(t.TempDir(), "transactions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	store := ledger.NewMemoryStore()
	accounts := ledger.NewAccounts(ledger.AccountsConfig{Store: store})
	coordinator := transfer.NewCoordinator(transfer.Config{Repo: repo, Ledger: store})

	g := gateway.New(gateway.Config{
		Ledger:   ledger.NewServer(&ledger.Config{Accounts: accounts}),
		Transfer: transfer.NewServer(coordinator),
	})
	return httptest.NewServer(g.Routes())
}

func do(t *testing.T, srv *httptest.Server, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, "application/json", res.Header.Get("Content-Type"))
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func open(t *testing.T, srv *httptest.Server, userID, balance string) *api.Account {
	t.Helper()
	var account api.Account
	code := do(t, srv, http.MethodPost, "/accounts", &api.CreateAccountRequest{
		UserId:         userID,
		Type:           string(ledger.TypeSavings),
		InitialBalance: balance,
	}, &account)
	require.Equal(t, http.StatusCreated, code)
	return &account
}

func testTransferFlow(t *testing.T, srv *httptest.Server) {
	a := open(t, srv, uuid.New().String(), "1000.00")
	b := open(t, srv, uuid.New().String(), "500.00")

	var initiated api.TransferStatus
	code := do(t, srv, http.MethodPost, "/transfers", &api.InitiateTransferRequest{
		FromId: a.Id,
		ToId:   b.Id,
		Amount: "100.00",
	}, &initiated)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, string(transfer.StatusInitiated), initiated.Status)

	var executed api.TransferStatus
	code = do(t, srv, http.MethodPost, "/transfers/"+initiated.TransactionId+"/execute", nil, &executed)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(transfer.StatusSuccess), executed.Status)

	var account api.Account
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/accounts/"+a.Id, nil, &account))
	require.Equal(t, "900", account.Balance)

	var entries []*api.StatementEntry
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/accounts/"+b.Id+"/transactions", nil, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, string(transfer.Credit), entries[0].Direction)
	require.Equal(t, a.Id, entries[0].CounterpartyAccountId)

	// too much
	code = do(t, srv, http.MethodPost, "/transfers", &api.InitiateTransferRequest{
		FromId: a.Id,
		ToId:   b.Id,
		Amount: "2000.00",
	}, &initiated)
	require.Equal(t, http.StatusCreated, code)
	code = do(t, srv, http.MethodPost, "/transfers/"+initiated.TransactionId+"/execute", nil, &executed)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(transfer.StatusFailed), executed.Status)
	require.Equal(t, string(transfer.ReasonInsufficientFunds), executed.FailureReason)
}

func testListAccounts(t *testing.T, srv *httptest.Server) {
	user := uuid.New().String()
	open(t, srv, user, "1")
	open(t, srv, user, "2")
	open(t, srv, uuid.New().String(), "3")

	var accounts []*api.Account
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/users/"+user+"/accounts", nil, &accounts))
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		require.Equal(t, user, a.UserId)
	}
}

func testErrors(t *testing.T, srv *httptest.Server) {
	var body struct {
		Error string `json:"error"`
	}

	require.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/accounts/"+uuid.New().String(), nil, &body))
	require.NotEmpty(t, body.Error)

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/accounts/not-an-id", nil, &body))

	require.Equal(t, http.StatusNotFound,
		do(t, srv, http.MethodPost, "/transfers/"+uuid.New().String()+"/execute", nil, &body))

	id := uuid.New().String()
	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/transfers", &api.InitiateTransferRequest{
		FromId: id,
		ToId:   id,
		Amount: "1",
	}, &body))

	require.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/accounts", &api.CreateAccountRequest{
		UserId:         uuid.New().String(),
		Type:           "BROKERAGE",
		InitialBalance: "1",
	}, &body))
}

func testEmptyStatement(t *testing.T, srv *httptest.Server) {
	var entries []*api.StatementEntry
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/accounts/"+uuid.New().String()+"/transactions", nil, &entries))
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
