package github

import (
	"errors"
	"net/http"
)

// Sentinel kinds for collector errors.
var (
	ErrEmptyIdentity = errors.New("identity must not be empty")
)

// UpstreamError is a failed or non-2xx profile API response.
// Status is 0 when the request never got a response.
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

// NotFound reports whether the upstream said the identity does not exist.
func (e *UpstreamError) NotFound() bool { return e.Status == http.StatusNotFound }
