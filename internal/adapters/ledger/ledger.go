// Package ledger is the boundary to the score registry contract.
//
// Two implementations exist: an in-process model of the contract used for
// development and tests, and an EVM client that talks to the deployed
// contract over JSON-RPC.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Record is the latest score stored for a wallet.
type Record struct {
	Wallet    common.Address `json:"walletAddress"`
	Identity  string         `json:"githubUsername"`
	Score     int            `json:"score"`
	Timestamp int64          `json:"timestamp"`
}

// Receipt identifies a committed write.
type Receipt struct {
	TxHash      common.Hash `json:"transactionHash"`
	BlockNumber uint64      `json:"blockNumber,omitempty"`
}

// Ledger is the contract surface the service relies on.
type Ledger interface {
	// StoreScore records a self-reported score.
	StoreScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64) (Receipt, error)
	// StoreVerifiedScore records a score with its attestation id.
	StoreVerifiedScore(ctx context.Context, wallet common.Address, identity string, score int, ts int64, attestationID common.Hash) (Receipt, error)
	// GetScore returns the score stored for (wallet, identity). Unknown pairs yield zeros.
	GetScore(ctx context.Context, wallet common.Address, identity string) (score int, ts int64, err error)
	// LatestScore returns the wallet's latest record or ErrNoRecord.
	LatestScore(ctx context.Context, wallet common.Address) (Record, error)
	// IsVerified reports whether (wallet, identity) has a verified score and its attestation id.
	IsVerified(ctx context.Context, wallet common.Address, identity string) (bool, common.Hash, error)
	// Count returns the number of wallets that ever stored a score.
	Count(ctx context.Context) (int, error)
	// EntryAt returns the wallet at position i of the registration order.
	EntryAt(ctx context.Context, i int) (common.Address, error)
}

// ParseWallet validates a hex address and returns it in canonical form.
func ParseWallet(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, ErrInvalidWallet
	}
	return common.HexToAddress(s), nil
}
