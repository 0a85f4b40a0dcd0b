// Package engine describes the call boundary of the legacy ledger engine:
// seven operations exchanging fixed-layout buffers and a two-digit status.
package engine

import (
	"context"

	"ledger-bridge/internal/comp3"
	"ledger-bridge/internal/record"
)

// Status is the two ASCII digits the engine writes after every call.
type Status [2]byte

var (
	StatusOK                 = NewStatus("00")
	StatusInvalidKey         = NewStatus("01")
	StatusNotFound           = NewStatus("03")
	StatusDuplicateKey       = NewStatus("22")
	StatusInvalidTransaction = NewStatus("50")
	StatusTableFull          = NewStatus("90")
)

func NewStatus(code string) Status {
	var s Status
	copy(s[:], code)
	return s
}

func (s Status) String() string {
	return string(s[:])
}

// Engine is implemented by every backend of the ledger engine. Outcomes are
// reported through the status argument; a returned error means the call
// boundary itself failed and must not be retried.
type Engine interface {
	CreateAccount(ctx context.Context, id record.Key, balance comp3.Packed, out *record.AccountBuf, status *Status) error
	ReadAccount(ctx context.Context, id record.Key, out *record.AccountBuf, status *Status) error
	ReadAccounts(ctx context.Context, out *record.AccountTable, status *Status) error
	CreateTransaction(ctx context.Context, source, destination record.Key, amount comp3.Packed, out *record.TransactionBuf, status *Status) error
	ReadCredits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *Status) error
	ReadDebits(ctx context.Context, account, start record.Key, out *record.TransactionTable, status *Status) error
	ProcessTransactions(ctx context.Context, account record.Key, status *Status) error
}
