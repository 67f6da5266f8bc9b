package service

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// walletLocks hands out one mutex per wallet so the lock check and the ledger
// write for a wallet happen as a unit within this process. Entries are
// dropped once nobody holds or waits on them.
type walletLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*walletLock
}

type walletLock struct {
	mu   sync.Mutex
	refs int
}

func newWalletLocks() *walletLocks {
	return &walletLocks{locks: make(map[common.Address]*walletLock)}
}

// Lock blocks until wallet is free and returns its unlock function.
func (w *walletLocks) Lock(wallet common.Address) func() {
	w.mu.Lock()
	l, ok := w.locks[wallet]
	if !ok {
		l = &walletLock{}
		w.locks[wallet] = l
	}
	l.refs++
	w.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		w.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(w.locks, wallet)
		}
		w.mu.Unlock()
	}
}

func (w *walletLocks) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.locks)
}
