package config

import "errors"

// Errors returned by Load and Validate. A failed option check wraps the
// option name after the kind, e.g. "required option not set: rpc_url".
var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrUnknownBackend = errors.New("unknown backend")
	ErrLoadConfig     = errors.New("load config failed")
	ErrNotConfigured  = errors.New("required option not set")
)
