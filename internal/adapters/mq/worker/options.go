package worker

import (
	"github.com/okian/gscore/pkg/logger"
)

// Option configures a worker. Options given to NewPool reach every worker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs. NewPool overrides it per worker.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the parent logger; the worker logs under its name.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
