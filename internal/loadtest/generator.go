package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/okian/gscore/pkg/logger"
)

// randomInt returns a uniform int in [0, n).
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// randomWallet returns a fresh checksummed address.
func randomWallet() (string, error) {
	var b [common.AddressLength]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return common.BytesToAddress(b[:]).Hex(), nil
}

// generateSubmissions creates one submission per wallet with unique
// identities and scores spread over the whole range.
func generateSubmissions(ctx context.Context, cfg *Config, stats *Stats) ([]Submission, error) {
	logger.Get().Info(ctx, "generating submissions", logger.Int("wallets", cfg.NumWallets))

	subs := make([]Submission, cfg.NumWallets)
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		wallet, err := randomWallet()
		if err != nil {
			return nil, err
		}
		subs[i] = Submission{
			Wallet:   wallet,
			Identity: "lt-" + uuid.NewString()[:8],
			Score:    generateScore(),
		}
	}
	stats.Generated = len(subs)
	return subs, nil
}

// generateScore draws from a skewed distribution: most scores are middling,
// a few are very high or very low.
func generateScore() int {
	switch randomInt(8) {
	case 0:
		return 900 + randomInt(maxScore-900+1)
	case 1, 2:
		return randomInt(200)
	default:
		return 200 + randomInt(600)
	}
}
