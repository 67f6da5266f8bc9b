// Package attestation derives deterministic attestation ids for stored scores.
//
// The default Attester hashes the identity, score and timestamp. It is a
// placeholder for a real off-chain proof: the id proves nothing about the
// metrics themselves. A real attestation source can replace it behind the
// Attester interface.
package attestation

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hash is a 32-byte attestation id.
type Hash = common.Hash

// Attester produces an attestation id for a score.
type Attester interface {
	Attest(identity string, score int, timestamp int64) Hash
}

// Keccak derives keccak256(utf8("{identity}-{score}-{timestamp}")),
// the same digest the ledger contract expects.
type Keccak struct{}

// NewKeccak returns the default attester.
func NewKeccak() Keccak { return Keccak{} }

// Attest implements Attester.
func (Keccak) Attest(identity string, score int, timestamp int64) Hash {
	return crypto.Keccak256Hash([]byte(Payload(identity, score, timestamp)))
}

// Payload returns the preimage hashed by Keccak.
func Payload(identity string, score int, timestamp int64) string {
	return identity + "-" + strconv.Itoa(score) + "-" + strconv.FormatInt(timestamp, 10)
}

// IsZero reports whether h is the "no attestation" value.
func IsZero(h Hash) bool {
	return h == (Hash{})
}

// HexOrNil renders h for JSON responses, mapping the zero hash to nil.
func HexOrNil(h Hash) *string {
	if IsZero(h) {
		return nil
	}
	s := h.Hex()
	return &s
}
