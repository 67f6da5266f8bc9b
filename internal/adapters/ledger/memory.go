package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okian/gscore/pkg/metrics"
)

type pairKey struct {
	wallet   common.Address
	identity string
}

type pairEntry struct {
	score       int
	ts          int64
	verified    bool
	attestation common.Hash
}

// Memory models the registry contract in process. State is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	pairs   map[pairKey]pairEntry
	latest  map[common.Address]Record
	wallets []common.Address
	nonce   uint64
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		pairs:  make(map[pairKey]pairEntry),
		latest: make(map[common.Address]Record),
	}
}

func (m *Memory) store(wallet common.Address, identity string, score int, ts int64, verified bool, att common.Hash) Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairs[pairKey{wallet, identity}] = pairEntry{score: score, ts: ts, verified: verified, attestation: att}
	if _, ok := m.latest[wallet]; !ok {
		m.wallets = append(m.wallets, wallet)
	}
	m.latest[wallet] = Record{Wallet: wallet, Identity: identity, Score: score, Timestamp: ts}

	m.nonce++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], m.nonce)
	return Receipt{TxHash: crypto.Keccak256Hash(wallet.Bytes(), []byte(identity), buf[:]), BlockNumber: m.nonce}
}

// StoreScore implements Ledger.
func (m *Memory) StoreScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64) (Receipt, error) {
	start := time.Now()
	r := m.store(wallet, identity, score, ts, false, common.Hash{})
	observe("store_score", start, nil)
	return r, nil
}

// StoreVerifiedScore implements Ledger.
func (m *Memory) StoreVerifiedScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64, att common.Hash) (Receipt, error) {
	start := time.Now()
	r := m.store(wallet, identity, score, ts, true, att)
	observe("store_verified_score", start, nil)
	return r, nil
}

// GetScore implements Ledger.
func (m *Memory) GetScore(ctx context.Context, wallet common.Address, identity string) (int, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.pairs[pairKey{wallet, identity}]
	return e.score, e.ts, nil
}

// LatestScore implements Ledger.
func (m *Memory) LatestScore(ctx context.Context, wallet common.Address) (Record, error) {
	start := time.Now()
	m.mu.RLock()
	r, ok := m.latest[wallet]
	m.mu.RUnlock()
	if !ok {
		observe("latest_score", start, ErrNoRecord)
		return Record{}, ErrNoRecord
	}
	observe("latest_score", start, nil)
	return r, nil
}

// IsVerified implements Ledger.
func (m *Memory) IsVerified(ctx context.Context, wallet common.Address, identity string) (bool, common.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.pairs[pairKey{wallet, identity}]
	return e.verified, e.attestation, nil
}

// Count implements Ledger.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.wallets), nil
}

// EntryAt implements Ledger.
func (m *Memory) EntryAt(ctx context.Context, i int) (common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.wallets) {
		return common.Address{}, wrap("entry_at", ErrOutOfRange)
	}
	return m.wallets[i], nil
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRecord):
		result = "no_record"
	default:
		result = "error"
	}
	metrics.RecordLedgerOp(op, result, float64(time.Since(start).Milliseconds()))
}
