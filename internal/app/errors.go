package service

import (
	"errors"
	"fmt"

	"github.com/okian/gscore/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotStarted     = errors.New("service not started")
	ErrDuplicateBatch = errors.New("batch already submitted")
	ErrQueueFull      = errors.New("batch queue full")
	ErrBatchNotFound  = errors.New("batch not found")
)

// FlaggedError is a failure that was recorded in the flag ledger before it
// was returned.
type FlaggedError struct {
	Err  error
	Flag model.Flag
}

func (e *FlaggedError) Error() string { return e.Err.Error() }

func (e *FlaggedError) Unwrap() error { return e.Err }

// IsFlagged reports whether err carries a recorded flag.
func IsFlagged(err error) bool {
	var f *FlaggedError
	return errors.As(err, &f)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
