package gateway

import (
	"errors"
	"fmt"

	"ledger-bridge/internal/engine"
)

var (
	ErrInvalidKey         = errors.New("invalid account key")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidTransaction = errors.New("invalid transaction parameters")
	ErrUnknownStatus      = errors.New("unknown ledger status")
	ErrEngineFault        = errors.New("ledger engine fault")
)

// StatusError carries a non-success status exactly as the engine returned it.
type StatusError struct {
	Op   string
	Code engine.Status
	kind error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %s: %v", e.Op, e.Code, e.kind)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// NewStatusError classifies code. missingIsNotFound marks operations where
// "03" means the addressed account does not exist.
func NewStatusError(op string, code engine.Status, missingIsNotFound bool) *StatusError {
	kind := ErrUnknownStatus
	switch {
	case code == engine.StatusInvalidKey:
		kind = ErrInvalidKey
	case code == engine.StatusNotFound && missingIsNotFound:
		kind = ErrAccountNotFound
	case code == engine.StatusInvalidTransaction:
		kind = ErrInvalidTransaction
	}
	return &StatusError{Op: op, Code: code, kind: kind}
}

// StatusCode extracts the engine status from err, if it carries one.
func StatusCode(err error) (engine.Status, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return engine.Status{}, false
}
