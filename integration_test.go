package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"ledger-bridge/internal/testutil"
	"ledger-bridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *testutil.TestServer {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test requires docker")
	}
	ts := testutil.SetupTestServer(t)
	t.Cleanup(ts.Cleanup)
	return ts
}

func TestBasicTransactionFlow(t *testing.T) {
	ts := setup(t)

	created := ts.CreateTestAccount(t, 101, "500.00")
	assert.Equal(t, "0101", created.AccountID)
	assert.Equal(t, "500.00", created.Amount)
	assert.Empty(t, created.LastCreditTransaction)
	assert.Empty(t, created.LastDebitTransaction)

	ts.CreateTestAccount(t, 102, "500.00")

	accounts := ts.ListAccounts(t)
	require.Len(t, accounts, 2)
	assert.Equal(t, "0101", accounts[0].AccountID)
	assert.Equal(t, "0102", accounts[1].AccountID)

	txn := ts.CreateTransaction(t, 101, 102, "100.00")
	assert.Equal(t, "0001", txn.TransactionID)
	assert.Equal(t, "0101", txn.SourceID)
	assert.Equal(t, "0102", txn.DestinationID)
	assert.Equal(t, "100.00", txn.Amount)
	assert.Len(t, txn.DateYYYY, 4)
	assert.Len(t, txn.TimeMS, 6)

	// Pending transfers do not move money.
	assert.Equal(t, "500.00", ts.GetAccount(t, 101).Amount)

	ts.ProcessTransactions(t, 101)

	source := ts.GetAccount(t, 101)
	destination := ts.GetAccount(t, 102)
	assert.Equal(t, "400.00", source.Amount)
	assert.Equal(t, "0001", source.LastDebitTransaction)
	assert.Equal(t, "600.00", destination.Amount)
	assert.Equal(t, "0001", destination.LastCreditTransaction)

	debits := ts.ListTransactions(t, 101, models.TransactionTypeDebit, 0)
	require.Len(t, debits, 1)
	assert.Equal(t, "0001", debits[0].TransactionID)

	credits := ts.ListTransactions(t, 102, models.TransactionTypeCredit, 0)
	require.Len(t, credits, 1)
	assert.Equal(t, "0001", credits[0].TransactionID)

	assert.Empty(t, ts.ListTransactions(t, 101, models.TransactionTypeCredit, 0))

	// Nothing left to settle.
	ts.ProcessTransactions(t, 101)
	assert.Equal(t, "400.00", ts.GetAccount(t, 101).Amount)

	status, body := ts.Do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `ledger_bridge_test_engine_calls_total{operation="process_transactions",status="03"} 1`)
}

func TestInsufficientBalance(t *testing.T) {
	ts := setup(t)

	ts.CreateTestAccount(t, 201, "100.00")
	ts.CreateTestAccount(t, 202, "100.00")

	ts.CreateTransaction(t, 201, 202, "200.00")
	ts.ProcessTransactions(t, 201)

	assert.Equal(t, "100.00", ts.GetAccount(t, 201).Amount)
	assert.Equal(t, "100.00", ts.GetAccount(t, 202).Amount)
	assert.Empty(t, ts.GetAccount(t, 201).LastDebitTransaction)
}

func TestLedgerErrors(t *testing.T) {
	ts := setup(t)

	ts.CreateTestAccount(t, 301, "10.00")

	status, body := ts.Do(t, http.MethodPost, "/api/accounts/301", `{"balance_total": "5.00"}`)
	assert.Equal(t, http.StatusInternalServerError, status, string(body))
	assert.Contains(t, string(body), `"code":"22"`)

	status, _ = ts.Do(t, http.MethodGet, "/api/accounts/399", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.Do(t, http.MethodGet, "/api/accounts/10000", "")
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = ts.Do(t, http.MethodPost, "/api/accounts/301/transactions", `{"destination_id": 398, "amount": "1.00"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.Do(t, http.MethodPost, "/api/accounts/398/transactions", `{"destination_id": 301, "amount": "1.00"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.Do(t, http.MethodPost, "/api/accounts/301/transactions", `{"destination_id": 301, "amount": "1.00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = ts.Do(t, http.MethodPost, "/api/accounts/301", `{"balance_total": "-1.00"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestTransactionPaging(t *testing.T) {
	ts := setup(t)

	ts.CreateTestAccount(t, 401, "1000.00")
	ts.CreateTestAccount(t, 402, "0.00")

	for i := 0; i < 12; i++ {
		ts.CreateTransaction(t, 401, 402, "1.00")
	}

	first := ts.ListTransactions(t, 402, models.TransactionTypeCredit, 0)
	require.Len(t, first, 10)
	assert.Equal(t, "0001", first[0].TransactionID)
	assert.Equal(t, "0010", first[9].TransactionID)

	second := ts.ListTransactions(t, 402, models.TransactionTypeCredit, 10)
	require.Len(t, second, 2)
	assert.Equal(t, "0011", second[0].TransactionID)
	assert.Equal(t, "0012", second[1].TransactionID)

	ts.ProcessTransactions(t, 401)
	assert.Equal(t, "988.00", ts.GetAccount(t, 401).Amount)
	assert.Equal(t, "12.00", ts.GetAccount(t, 402).Amount)
	assert.Equal(t, "0012", ts.GetAccount(t, 402).LastCreditTransaction)
}

func TestConcurrentTransactionKeys(t *testing.T) {
	ts := setup(t)

	ts.CreateTestAccount(t, 501, "1000.00")
	ts.CreateTestAccount(t, 502, "1000.00")

	const numTransactions = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		keys = make(map[string]bool)
	)
	errs := make(chan error, numTransactions)

	for i := 0; i < numTransactions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			source, destination := 501, 502
			if n%2 == 1 {
				source, destination = 502, 501
			}

			status, body := ts.Do(t, http.MethodPost, fmt.Sprintf("/api/accounts/%d/transactions", source),
				fmt.Sprintf(`{"destination_id": %d, "amount": "1.00"}`, destination))
			if status != http.StatusOK {
				errs <- fmt.Errorf("transaction %d failed with status %d: %s", n, status, body)
				return
			}

			var txn models.Transaction
			if err := json.Unmarshal(body, &txn); err != nil {
				errs <- err
				return
			}

			mu.Lock()
			keys[txn.TransactionID] = true
			mu.Unlock()
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Len(t, keys, numTransactions)

	ts.ProcessTransactions(t, 501)
	ts.ProcessTransactions(t, 502)

	assert.Equal(t, "1000.00", ts.GetAccount(t, 501).Amount)
	assert.Equal(t, "1000.00", ts.GetAccount(t, 502).Amount)
}
