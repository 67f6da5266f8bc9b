package flags

import (
	"context"
	"sync"

	"github.com/okian/gscore/internal/domain/model"
)

// Memory keeps flags in process. Entries are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries []model.Flag
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements Store.
func (m *Memory) Append(_ context.Context, f model.Flag) error {
	m.mu.Lock()
	m.entries = append(m.entries, f)
	m.mu.Unlock()
	return nil
}

// Latest implements Store.
func (m *Memory) Latest(_ context.Context, identity string) (model.Flag, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := latestIn(m.entries, identity)
	return f, ok, nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, limit int) ([]model.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.entries, limit), nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

func latestIn(entries []model.Flag, identity string) (model.Flag, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if model.SameIdentity(entries[i].Identity, identity) {
			return entries[i], true
		}
	}
	return model.Flag{}, false
}

func newestFirst(entries []model.Flag, limit int) []model.Flag {
	n := len(entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Flag, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}
