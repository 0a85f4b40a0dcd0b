// Package enginetest provides a scripted engine.Engine for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/record"
)

// Fake answers each operation through the matching func field. An operation
// whose func is nil fails as a boundary fault, so unexpected calls surface.
type Fake struct {
	CreateAccountFunc       func(id record.Key, balance comp3.Packed) (record.AccountBuf, string)
	ReadAccountFunc         func(id record.Key) (record.AccountBuf, string)
	ReadAccountsFunc        func() (record.AccountTable, string)
	CreateTransactionFunc   func(source, destination record.Key, amount comp3.Packed) (record.TransactionBuf, string)
	ReadCreditsFunc         func(account, start record.Key) (record.TransactionTable, string)
	ReadDebitsFunc          func(account, start record.Key) (record.TransactionTable, string)
	ProcessTransactionsFunc func(account record.Key) string

	// Fault, when set, is returned by every call.
	Fault error

	mu    sync.Mutex
	calls []string
}

var _ engine.Engine = (*Fake)(nil)

// Calls returns the operations invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(op string, scripted bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()

	if f.Fault != nil {
		return f.Fault
	}
	if !scripted {
		return fmt.Errorf("enginetest: unexpected call to %s", op)
	}
	return nil
}

func (f *Fake) CreateAccount(_ context.Context, id record.Key, balance comp3.Packed, out *record.AccountBuf, status *engine.Status) error {
	if err := f.record("CreateAccount", f.CreateAccountFunc != nil); err != nil {
		return err
	}
	buf, code := f.CreateAccountFunc(id, balance)
	*out, *status = buf, engine.NewStatus(code)
	return nil
}

func (f *Fake) ReadAccount(_ context.Context, id record.Key, out *record.AccountBuf, status *engine.Status) error {
	if err := f.record("ReadAccount", f.ReadAccountFunc != nil); err != nil {
		return err
	}
	buf, code := f.ReadAccountFunc(id)
	*out, *status = buf, engine.NewStatus(code)
	return nil
}

func (f *Fake) ReadAccounts(_ context.Context, out *record.AccountTable, status *engine.Status) error {
	if err := f.record("ReadAccounts", f.ReadAccountsFunc != nil); err != nil {
		return err
	}
	table, code := f.ReadAccountsFunc()
	*out, *status = table, engine.NewStatus(code)
	return nil
}

func (f *Fake) CreateTransaction(_ context.Context, source, destination record.Key, amount comp3.Packed, out *record.TransactionBuf, status *engine.Status) error {
	if err := f.record("CreateTransaction", f.CreateTransactionFunc != nil); err != nil {
		return err
	}
	buf, code := f.CreateTransactionFunc(source, destination, amount)
	*out, *status = buf, engine.NewStatus(code)
	return nil
}

func (f *Fake) ReadCredits(_ context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	if err := f.record("ReadCredits", f.ReadCreditsFunc != nil); err != nil {
		return err
	}
	table, code := f.ReadCreditsFunc(account, start)
	*out, *status = table, engine.NewStatus(code)
	return nil
}

func (f *Fake) ReadDebits(_ context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	if err := f.record("ReadDebits", f.ReadDebitsFunc != nil); err != nil {
		return err
	}
	table, code := f.ReadDebitsFunc(account, start)
	*out, *status = table, engine.NewStatus(code)
	return nil
}

func (f *Fake) ProcessTransactions(_ context.Context, account record.Key, status *engine.Status) error {
	if err := f.record("ProcessTransactions", f.ProcessTransactionsFunc != nil); err != nil {
		return err
	}
	*status = engine.NewStatus(f.ProcessTransactionsFunc(account))
	return nil
}

// AccountRecord packs an account or panics; for building scripted replies.
func AccountRecord(account record.Account) record.AccountBuf {
	buf, err := record.PackAccount(account)
	if err != nil {
		panic(err)
	}
	return buf
}

// TransactionRecord packs a transaction or panics; for building scripted replies.
func TransactionRecord(txn record.Transaction) record.TransactionBuf {
	buf, err := record.PackTransaction(txn)
	if err != nil {
		panic(err)
	}
	return buf
}
