//go:build !legacyengine

package native

import (
	"context"
	"fmt"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/engine"
	"ledger-bridge/internal/record"
)

// Engine is a placeholder in builds without the legacyengine tag; Open
// always fails.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

func Open(dir string) (*Engine, error) {
	return nil, fmt.Errorf("open %s: %w (build with -tags legacyengine)", dir, ErrUnavailable)
}

func (e *Engine) Close() error { return nil }

func (e *Engine) CreateAccount(context.Context, record.Key, comp3.Packed, *record.AccountBuf, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) ReadAccount(context.Context, record.Key, *record.AccountBuf, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) ReadAccounts(context.Context, *record.AccountTable, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) CreateTransaction(context.Context, record.Key, record.Key, comp3.Packed, *record.TransactionBuf, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) ReadCredits(context.Context, record.Key, record.Key, *record.TransactionTable, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) ReadDebits(context.Context, record.Key, record.Key, *record.TransactionTable, *engine.Status) error {
	return ErrUnavailable
}

func (e *Engine) ProcessTransactions(context.Context, record.Key, *engine.Status) error {
	return ErrUnavailable
}
