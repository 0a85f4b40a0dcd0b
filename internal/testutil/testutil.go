package testutil

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledger-bridge/internal/database"
	"ledger-bridge/internal/engine/pgengine"
	"ledger-bridge/internal/gateway"
	"ledger-bridge/internal/handlers"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/metrics"
	"ledger-bridge/internal/service"
	"ledger-bridge/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestServer runs the HTTP facade over the Postgres engine in a throwaway
// container.
type TestServer struct {
	Server  *httptest.Server
	DB      *sql.DB
	Cleanup func()
	client  *http.Client
}

func SetupTestServer(t *testing.T) *TestServer {
	t.Helper()

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "ledger_test",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "password",
		},
		// Postgres logs readiness once for the init server and once for the real one.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := postgres.Host(ctx)
	require.NoError(t, err)
	port, err := postgres.MappedPort(ctx, "5432")
	require.NoError(t, err)

	databaseURL := fmt.Sprintf("postgres://postgres:password@%s:%s/ledger_test?sslmode=disable", host, port.Port())

	log := logger.New("ERROR")

	db, err := database.NewConnection(databaseURL, log)
	require.NoError(t, err)

	collector := metrics.NewCollector("ledger_bridge_test")
	ledger := gateway.New(metrics.InstrumentEngine(pgengine.New(db, log), collector), log)

	accountService := service.NewAccountService(ledger, log)
	transactionService := service.NewTransactionService(ledger, log)

	accountHandler := handlers.NewAccountHandler(accountService, log)
	transactionHandler := handlers.NewTransactionHandler(transactionService, log)

	router := handlers.SetupRoutes(accountHandler, transactionHandler, log)
	router.Use(collector.Middleware)
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		db.Close()
		postgres.Terminate(ctx)
	}

	return &TestServer{
		Server:  server,
		DB:      db,
		Cleanup: cleanup,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Do sends a request to the facade and returns the status and raw body.
func (ts *TestServer) Do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (ts *TestServer) CreateTestAccount(t *testing.T, accountID int, balance string) models.Account {
	t.Helper()

	status, body := ts.Do(t, http.MethodPost, fmt.Sprintf("/api/accounts/%d", accountID),
		fmt.Sprintf(`{"balance_total": %q}`, balance))
	require.Equal(t, http.StatusOK, status, string(body))

	var account models.Account
	require.NoError(t, json.Unmarshal(body, &account))
	return account
}

func (ts *TestServer) GetAccount(t *testing.T, accountID int) models.Account {
	t.Helper()

	status, body := ts.Do(t, http.MethodGet, fmt.Sprintf("/api/accounts/%d", accountID), "")
	require.Equal(t, http.StatusOK, status, string(body))

	var account models.Account
	require.NoError(t, json.Unmarshal(body, &account))
	return account
}

func (ts *TestServer) ListAccounts(t *testing.T) []models.Account {
	t.Helper()

	status, body := ts.Do(t, http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, status, string(body))

	var list models.AccountList
	require.NoError(t, json.Unmarshal(body, &list))
	return list.Accounts
}

func (ts *TestServer) CreateTransaction(t *testing.T, sourceID, destinationID int, amount string) models.Transaction {
	t.Helper()

	status, body := ts.Do(t, http.MethodPost, fmt.Sprintf("/api/accounts/%d/transactions", sourceID),
		fmt.Sprintf(`{"destination_id": %d, "amount": %q}`, destinationID, amount))
	require.Equal(t, http.StatusOK, status, string(body))

	var txn models.Transaction
	require.NoError(t, json.Unmarshal(body, &txn))
	return txn
}

func (ts *TestServer) ProcessTransactions(t *testing.T, accountID int) {
	t.Helper()

	status, body := ts.Do(t, http.MethodPut, fmt.Sprintf("/api/accounts/%d/transactions", accountID), "")
	require.Equal(t, http.StatusOK, status, string(body))
}

func (ts *TestServer) ListTransactions(t *testing.T, accountID int, transactionType string, start int) []models.Transaction {
	t.Helper()

	status, body := ts.Do(t, http.MethodGet,
		fmt.Sprintf("/api/accounts/%d/transactions?type=%s&start=%d", accountID, transactionType, start), "")
	require.Equal(t, http.StatusOK, status, string(body))

	var list models.TransactionList
	require.NoError(t, json.Unmarshal(body, &list))
	return list.Transactions
}
