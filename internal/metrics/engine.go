package metrics

import (
	"context"
	"time"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/record"
)

type instrumentedEngine struct {
	next      engine.Engine
	collector *Collector
}

// InstrumentEngine wraps e so every call is recorded on c. Buffers and
// status pass through untouched.
func InstrumentEngine(e engine.Engine, c *Collector) engine.Engine {
	return &instrumentedEngine{next: e, collector: c}
}

func (e *instrumentedEngine) observe(operation string, status *engine.Status, call func() error) error {
	start := time.Now()
	err := call()
	e.collector.RecordEngineCall(operation, *status, time.Since(start), err)
	return err
}

func (e *instrumentedEngine) CreateAccount(ctx context.Context, id record.Key, balance comp3.Packed, out *record.AccountBuf, status *engine.Status) error {
	return e.observe("create_account", status, func() error {
		return e.next.CreateAccount(ctx, id, balance, out, status)
	})
}

func (e *instrumentedEngine) ReadAccount(ctx context.Context, id record.Key, out *record.AccountBuf, status *engine.Status) error {
	return e.observe("read_account", status, func() error {
		return e.next.ReadAccount(ctx, id, out, status)
	})
}

func (e *instrumentedEngine) ReadAccounts(ctx context.Context, out *record.AccountTable, status *engine.Status) error {
	return e.observe("read_accounts", status, func() error {
		return e.next.ReadAccounts(ctx, out, status)
	})
}

func (e *instrumentedEngine) CreateTransaction(ctx context.Context, source, destination record.Key, amount comp3.Packed, out *record.TransactionBuf, status *engine.Status) error {
	return e.observe("create_transaction", status, func() error {
		return e.next.CreateTransaction(ctx, source, destination, amount, out, status)
	})
}

func (e *instrumentedEngine) ReadCredits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	return e.observe("read_credits", status, func() error {
		return e.next.ReadCredits(ctx, account, start, out, status)
	})
}

func (e *instrumentedEngine) ReadDebits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error {
	return e.observe("read_debits", status, func() error {
		return e.next.ReadDebits(ctx, account, start, out, status)
	})
}

func (e *instrumentedEngine) ProcessTransactions(ctx context.Context, account record.Key, status *engine.Status) error {
	return e.observe("process_transactions", status, func() error {
		return e.next.ProcessTransactions(ctx, account, status)
	})
}
