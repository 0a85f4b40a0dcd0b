// Package gateway sequences calls into the ledger engine. It encodes
// requests with the record codecs, interprets the status codes and decodes
// the returned records; it never decides ledger outcomes itself.
package gateway

import (
	"context"
	"fmt"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/logger"
	"ledger-bridge/internal/record"
)

// Gateway is created once at startup and shared by every consumer. It keeps
// no per-call state; every call allocates its own buffers.
type Gateway struct {
	engine engine.Engine
	logger *logger.Logger
}

// TransactionPage is one bulk read of credits or debits. EndOfData is set
// when the engine reported that no further records follow.
type TransactionPage struct {
	Transactions []record.Transaction
	EndOfData    bool
}

func New(e engine.Engine, log *logger.Logger) *Gateway {
	return &Gateway{
		engine: e,
		logger: log,
	}
}

func (g *Gateway) fault(op string, err error) error {
	g.logger.Error("Ledger engine fault during %s: %v", op, err)
	return fmt.Errorf("%s: %w: %w", op, ErrEngineFault, err)
}

func (g *Gateway) CreateAccount(ctx context.Context, id int, balance string) (*record.Account, error) {
	key, err := record.EncodeKey(id)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	amount, err := comp3.Encode(balance)
	if err != nil {
		return nil, fmt.Errorf("create account balance: %w", err)
	}

	var (
		out    record.AccountBuf
		status engine.Status
	)
	if err := g.engine.CreateAccount(ctx, key, amount, &out, &status); err != nil {
		return nil, g.fault("create account", err)
	}
	if status != engine.StatusOK {
		return nil, NewStatusError("create account", status, false)
	}

	account, err := record.UnpackAccount(out)
	if err != nil {
		return nil, fmt.Errorf("create account response: %w", err)
	}
	g.logger.Debug("Account %s created", key)
	return &account, nil
}

func (g *Gateway) ReadAccount(ctx context.Context, id int) (*record.Account, error) {
	key, err := record.EncodeKey(id)
	if err != nil {
		return nil, fmt.Errorf("read account: %w", err)
	}
	return g.readAccount(ctx, "read account", key)
}

func (g *Gateway) readAccount(ctx context.Context, op string, key record.Key) (*record.Account, error) {
	var (
		out    record.AccountBuf
		status engine.Status
	)
	if err := g.engine.ReadAccount(ctx, key, &out, &status); err != nil {
		return nil, g.fault(op, err)
	}
	if status != engine.StatusOK {
		return nil, NewStatusError(op, status, true)
	}

	account, err := record.UnpackAccount(out)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", op, err)
	}
	return &account, nil
}

func (g *Gateway) ReadAccounts(ctx context.Context) ([]record.Account, error) {
	var (
		out    record.AccountTable
		status engine.Status
	)
	if err := g.engine.ReadAccounts(ctx, &out, &status); err != nil {
		return nil, g.fault("read accounts", err)
	}
	if status != engine.StatusOK {
		return nil, NewStatusError("read accounts", status, false)
	}

	accounts, err := record.UnpackAccounts(&out)
	if err != nil {
		return nil, fmt.Errorf("read accounts response: %w", err)
	}
	return accounts, nil
}

// CreateTransaction checks that both accounts exist before asking the engine
// to record the transfer. The first failing check is returned as is.
func (g *Gateway) CreateTransaction(ctx context.Context, sourceID, destinationID int, amount string) (*record.Transaction, error) {
	source, err := record.EncodeKey(sourceID)
	if err != nil {
		return nil, fmt.Errorf("create transaction source: %w", err)
	}
	destination, err := record.EncodeKey(destinationID)
	if err != nil {
		return nil, fmt.Errorf("create transaction destination: %w", err)
	}
	packed, err := comp3.Encode(amount)
	if err != nil {
		return nil, fmt.Errorf("create transaction amount: %w", err)
	}

	entry := g.logger.WithFields(map[string]interface{}{
		"source_id":      source.String(),
		"destination_id": destination.String(),
		"amount":         amount,
	})

	if _, err := g.readAccount(ctx, "create transaction: read source account", source); err != nil {
		entry.Debug("Source account check failed: %v", err)
		return nil, err
	}
	if _, err := g.readAccount(ctx, "create transaction: read destination account", destination); err != nil {
		entry.Debug("Destination account check failed: %v", err)
		return nil, err
	}

	var (
		out    record.TransactionBuf
		status engine.Status
	)
	if err := g.engine.CreateTransaction(ctx, source, destination, packed, &out, &status); err != nil {
		return nil, g.fault("create transaction", err)
	}
	if status != engine.StatusOK {
		entry.Warn("Create transaction rejected with status %s", status)
		return nil, NewStatusError("create transaction", status, true)
	}

	txn, err := record.UnpackTransaction(out)
	if err != nil {
		return nil, fmt.Errorf("create transaction response: %w", err)
	}
	entry.Debug("Transaction %04d created", txn.ID)
	return &txn, nil
}

type bulkRead func(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *engine.Status) error

func (g *Gateway) ReadCreditTransactions(ctx context.Context, accountID, startID int) (*TransactionPage, error) {
	return g.readTransactions(ctx, "read credits", g.engine.ReadCredits, accountID, startID)
}

func (g *Gateway) ReadDebitTransactions(ctx context.Context, accountID, startID int) (*TransactionPage, error) {
	return g.readTransactions(ctx, "read debits", g.engine.ReadDebits, accountID, startID)
}

func (g *Gateway) readTransactions(ctx context.Context, op string, read bulkRead, accountID, startID int) (*TransactionPage, error) {
	account, err := record.EncodeKey(accountID)
	if err != nil {
		return nil, fmt.Errorf("%s account: %w", op, err)
	}
	start, err := record.EncodeKey(startID)
	if err != nil {
		return nil, fmt.Errorf("%s start: %w", op, err)
	}

	var (
		out    record.TransactionTable
		status engine.Status
	)
	if err := read(ctx, account, start, &out, &status); err != nil {
		return nil, g.fault(op, err)
	}
	if status != engine.StatusOK && status != engine.StatusNotFound {
		return nil, NewStatusError(op, status, false)
	}

	transactions, err := record.UnpackTransactions(&out)
	if err != nil {
		return nil, fmt.Errorf("%s response: %w", op, err)
	}
	return &TransactionPage{
		Transactions: transactions,
		EndOfData:    status == engine.StatusNotFound,
	}, nil
}

// ProcessTransactions asks the engine to settle the account's pending
// transactions and returns its status untouched.
func (g *Gateway) ProcessTransactions(ctx context.Context, accountID int) (engine.Status, error) {
	key, err := record.EncodeKey(accountID)
	if err != nil {
		return engine.Status{}, fmt.Errorf("process transactions: %w", err)
	}

	var status engine.Status
	if err := g.engine.ProcessTransactions(ctx, key, &status); err != nil {
		return engine.Status{}, g.fault("process transactions", err)
	}
	g.logger.Debug("Process transactions for %s returned %s", key, status)
	return status, nil
}
