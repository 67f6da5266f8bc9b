package ledger

import (
	"errors"
	"fmt"
)

// Sentinel kinds for ledger errors.
var (
	ErrNoRecord      = errors.New("no score found")
	ErrInvalidWallet = errors.New("invalid wallet address")
	ErrOutOfRange    = errors.New("index out of range")
	ErrNotConfigured = errors.New("ledger not configured")
)

// Error wraps a failed ledger call.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
