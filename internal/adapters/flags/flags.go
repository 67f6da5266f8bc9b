// Package flags is the append-only audit log of failed store attempts.
//
// Entries are never updated or removed. A lookup returns the most recently
// appended entry for an identity, compared case-insensitively.
package flags

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/gscore/internal/domain/model"
	"github.com/okian/gscore/pkg/logger"
	"github.com/okian/gscore/pkg/metrics"
)

// Store persists flag entries. Identities passed in are already normalized.
type Store interface {
	Append(ctx context.Context, f model.Flag) error
	Latest(ctx context.Context, identity string) (model.Flag, bool, error)
	List(ctx context.Context, limit int) ([]model.Flag, error)
	Close() error
}

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithClock injects the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Ledger) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// Ledger records and looks up flags over a Store.
type Ledger struct {
	store  Store
	now    func() time.Time
	logger logger.Logger
}

// New creates a Ledger.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{store: store, now: time.Now, logger: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Flag appends an entry. Empty identities are rejected with ErrEmptyIdentity.
func (l *Ledger) Flag(ctx context.Context, identity, wallet, reason string) (model.Flag, error) {
	id := model.NormalizeIdentity(identity)
	if id == "" {
		return model.Flag{}, ErrEmptyIdentity
	}
	f := model.Flag{
		ID:        uuid.NewString(),
		Identity:  id,
		Wallet:    strings.TrimSpace(wallet),
		Reason:    reason,
		CreatedAt: l.now().UTC(),
	}
	if err := l.store.Append(ctx, f); err != nil {
		metrics.RecordFlagStoreError("append")
		return model.Flag{}, fmt.Errorf("append flag: %w", err)
	}
	l.logger.Warn(ctx, "identity flagged",
		logger.String("identity", f.Identity),
		logger.String("wallet", f.Wallet),
		logger.String("reason", f.Reason),
	)
	return f, nil
}

// Lookup returns the latest entry for identity.
func (l *Ledger) Lookup(ctx context.Context, identity string) (model.Flag, bool, error) {
	id := model.NormalizeIdentity(identity)
	if id == "" {
		return model.Flag{}, false, nil
	}
	f, ok, err := l.store.Latest(ctx, id)
	if err != nil {
		metrics.RecordFlagStoreError("lookup")
		return model.Flag{}, false, fmt.Errorf("lookup flag: %w", err)
	}
	return f, ok, nil
}

// Recent returns up to limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]model.Flag, error) {
	return l.store.List(ctx, limit)
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	return l.store.Close()
}
