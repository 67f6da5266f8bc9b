package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/okian/gscore/internal/adapters/blob"
	"github.com/okian/gscore/internal/domain/model"
)

// DefaultDocumentKey is the object key of the flag document.
const DefaultDocumentKey = "flaggedProfiles.json"

// Document keeps the whole log as one JSON array in a blob store and
// rewrites it on every append. It is durable but assumes a single writer.
type Document struct {
	mu      sync.RWMutex
	store   blob.Store
	key     string
	entries []model.Flag
}

// OpenDocument loads the document at key. A missing document starts empty.
func OpenDocument(ctx context.Context, store blob.Store, key string) (*Document, error) {
	if key == "" {
		key = DefaultDocumentKey
	}
	d := &Document{store: store, key: key}
	data, err := store.Get(ctx, key)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return d, nil
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(data, &d.entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, err)
	}
	return d, nil
}

// Append implements Store. The in-memory view only advances when the write lands.
func (d *Document) Append(ctx context.Context, f model.Flag) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := append(d.entries[:len(d.entries):len(d.entries)], f)
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return err
	}
	if err := d.store.Put(ctx, d.key, data); err != nil {
		return err
	}
	d.entries = next
	return nil
}

// Latest implements Store.
func (d *Document) Latest(_ context.Context, identity string) (model.Flag, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := latestIn(d.entries, identity)
	return f, ok, nil
}

// List implements Store.
func (d *Document) List(_ context.Context, limit int) ([]model.Flag, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return newestFirst(d.entries, limit), nil
}

// Close implements Store.
func (d *Document) Close() error { return nil }
