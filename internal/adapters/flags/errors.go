package flags

import "errors"

// Sentinel kinds for flag errors.
var (
	ErrEmptyIdentity   = errors.New("flag identity must not be empty")
	ErrUnknownBackend  = errors.New("unknown flag backend")
	ErrDocumentCorrupt = errors.New("flag document is not a json array")
)
