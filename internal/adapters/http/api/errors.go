package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrBackpressure  = errors.New("backpressure")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream error")
	ErrNotConfigured = errors.New("not configured")
	ErrUnavailable   = errors.New("unavailable")
	ErrTimeout       = errors.New("timeout")
	ErrInternal      = errors.New("internal error")
)

var errNoBatch = errors.New("no batch has completed yet")

// Error is a handler failure tagged with the operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op and the kind derived from it.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return WrapKind(op, classify(err).kind, err)
}

// clientMessage is the text shown to callers: the cause when there is one,
// otherwise the kind.
func clientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Kind.Error()
	}
	return err.Error()
}
