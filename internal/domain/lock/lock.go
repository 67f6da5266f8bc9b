// Package lock enforces that a wallet is bound to at most one identity.
package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/okian/gscore/internal/adapters/ledger"
	"github.com/okian/gscore/internal/domain/model"
)

// LatestReader reads a wallet's latest record.
type LatestReader interface {
	LatestScore(ctx context.Context, wallet common.Address) (ledger.Record, error)
}

// Violation is returned when a wallet is already bound to another identity.
type Violation struct {
	Wallet            common.Address
	ExistingIdentity  string
	AttemptedIdentity string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("Wallet %s is already locked to GitHub username %q.", v.Wallet.Hex(), v.ExistingIdentity)
}

// Reason is the flag reason recorded for this violation.
func (v *Violation) Reason() string {
	return "Wallet locked to " + v.ExistingIdentity
}

// IsViolation reports whether err is a lock violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// Guard checks candidate writes against the ledger.
type Guard struct {
	reader LatestReader
}

// NewGuard creates a Guard.
func NewGuard(r LatestReader) *Guard {
	return &Guard{reader: r}
}

// Check returns nil when identity may be stored for wallet. A wallet with no
// record is unbound. Read failures other than "no record" are returned as-is.
func (g *Guard) Check(ctx context.Context, wallet common.Address, identity string) error {
	rec, err := g.reader.LatestScore(ctx, wallet)
	if errors.Is(err, ledger.ErrNoRecord) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Identity == "" || model.SameIdentity(rec.Identity, identity) {
		return nil
	}
	return &Violation{Wallet: wallet, ExistingIdentity: rec.Identity, AttemptedIdentity: identity}
}
