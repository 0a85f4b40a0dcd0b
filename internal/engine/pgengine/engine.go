// Package pgengine is a Postgres-backed ledger engine speaking the legacy
// engine's buffer contract. It stands in for the native engine in local
// development and integration tests, and owns the ledger rules the gateway
// leaves to the engine.
package pgengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"
)

type Engine struct {
	store *store
}

var _ engine.Engine = (*Engine)(nil)

func New(db *sql.DB, log *logger.Logger) *Engine {
	return &Engine{
		store: &store{db: db, logger: log},
	}
}

// decodeKey reports false for anything the legacy engine rejects with "01".
func decodeKey(key record.Key) (int, bool) {
	id, ok, err := record.DecodeKey(key)
	if err != nil || !ok {
		return 0, false
	}
	return id, true
}

func (e *Engine) CreateAccount(ctx context.Context, id record.Key, balance comp3.Packed, out *record.AccountBuf, status *engine.Status) error {
	accountKey, ok := decodeKey(id)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}
	amount, err := comp3.Decode(balance)
	if err != nil {
		*status = engine.StatusInvalidTransaction
		return nil
	}

	account, err := e.store.createAccount(ctx, accountKey, amount)
	if errors.Is(err, errDuplicateAccount) {
		*status = engine.StatusDuplicateKey
		return nil
	}
	if err != nil {
		return err
	}

	return e.writeAccount(account, out, status)
}

func (e *Engine) ReadAccount(ctx context.Context, id record.Key, out *record.AccountBuf, status *engine.Status) error {
	accountKey, ok := decodeKey(id)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}

	account, err := e.store.getAccount(ctx, accountKey)
	if errors.Is(err, errAccountNotFound) {
		*status = engine.StatusNotFound
		return nil
	}
	if err != nil {
		return err
	}

	return e.writeAccount(account, out, status)
}

func (e *Engine) writeAccount(account *record.Account, out *record.AccountBuf, status *engine.Status) error {
	buf, err := record.PackAccount(*account)
	if err != nil {
		return fmt.Errorf("failed to pack account: %w", err)
	}
	*out = buf
	*status = engine.StatusOK
	return nil
}

// ReadAccounts returns the first table's worth of accounts in key order.
func (e *Engine) ReadAccounts(ctx context.Context, out *record.AccountTable, status *engine.Status) error {
	accounts, err := e.store.listAccounts(ctx, record.TableSlots)
	if err != nil {
		return err
	}

	table, err := record.PackAccounts(accounts)
	if err != nil {
		return fmt.Errorf("failed to pack accounts: %w", err)
	}
	*out = table
	*status = engine.StatusOK
	return nil
}

func (e *Engine) CreateTransaction(ctx context.Context, source, destination record.Key, amount comp3.Packed, out *record.TransactionBuf, status *engine.Status) error {
	sourceKey, ok := decodeKey(source)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}
	destinationKey, ok := decodeKey(destination)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}
	value, err := comp3.Decode(amount)
	if err != nil {
		*status = engine.StatusInvalidTransaction
		return nil
	}

	txn, err := e.store.createTransaction(ctx, sourceKey, destinationKey, value)
	switch {
	case errors.Is(err, errInvalidTransaction):
		*status = engine.StatusInvalidTransaction
		return nil
	case errors.Is(err, errAccountNotFound):
		*status = engine.StatusNotFound
		return nil
	case errors.Is(err, errTransactionsFull):
		*status = engine.StatusTableFull
		return nil
	case err != nil:
		return err
	}

	buf, err := record.PackTransaction(*txn)
	if err != nil {
		return fmt.Errorf("failed to pack transaction: %w", err)
	}
	*out = buf
	*status = engine.StatusOK
	return nil
}

func (e *Engine) ReadCredits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	return e.readTransactions(ctx, "destination_key", account, start, out, status)
}

func (e *Engine) ReadDebits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	return e.readTransactions(ctx, "source_key", account, start, out, status)
}

// readTransactions fills one table page. A short page means the end of the
// data was reached and is reported as "03".
func (e *Engine) readTransactions(ctx context.Context, column string, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	accountKey, ok := decodeKey(account)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}
	after, ok := decodeKey(start)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}

	transactions, err := e.store.listTransactions(ctx, column, accountKey, after, record.TableSlots)
	if err != nil {
		return err
	}

	table, err := record.PackTransactions(transactions)
	if err != nil {
		return fmt.Errorf("failed to pack transactions: %w", err)
	}
	*out = table
	*status = engine.StatusOK
	if len(transactions) < record.TableSlots {
		*status = engine.StatusNotFound
	}
	return nil
}

func (e *Engine) ProcessTransactions(ctx context.Context, account record.Key, status *engine.Status) error {
	accountKey, ok := decodeKey(account)
	if !ok {
		*status = engine.StatusInvalidKey
		return nil
	}

	settled, err := e.store.settle(ctx, accountKey)
	if err != nil {
		return err
	}

	*status = engine.StatusOK
	if settled == 0 {
		*status = engine.StatusNotFound
	}
	return nil
}
