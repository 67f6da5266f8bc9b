package attestation_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/okian/gscore/internal/domain/attestation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKeccakAttester(t *testing.T) {
	Convey("Given the keccak attester", t, func() {
		a := attestation.NewKeccak()

		Convey("The preimage joins identity, score and timestamp with dashes", func() {
			So(attestation.Payload("alice", 512, 1700000000), ShouldEqual, "alice-512-1700000000")
		})

		Convey("The id is keccak256 of the preimage", func() {
			want := crypto.Keccak256Hash([]byte("alice-512-1700000000"))
			So(a.Attest("alice", 512, 1700000000), ShouldEqual, want)
		})

		Convey("Equal inputs give equal ids", func() {
			So(a.Attest("bob", 7, 42), ShouldEqual, a.Attest("bob", 7, 42))
		})

		Convey("Any differing input changes the id", func() {
			base := a.Attest("bob", 7, 42)
			So(a.Attest("Bob", 7, 42), ShouldNotEqual, base)
			So(a.Attest("bob", 8, 42), ShouldNotEqual, base)
			So(a.Attest("bob", 7, 43), ShouldNotEqual, base)
		})

		Convey("A derived id is never the zero hash", func() {
			So(attestation.IsZero(a.Attest("bob", 0, 0)), ShouldBeFalse)
		})
	})
}

func TestHexOrNil(t *testing.T) {
	Convey("The zero hash renders as nil", t, func() {
		So(attestation.HexOrNil(attestation.Hash{}), ShouldBeNil)
		h := attestation.NewKeccak().Attest("x", 1, 1)
		s := attestation.HexOrNil(h)
		So(s, ShouldNotBeNil)
		So(*s, ShouldEqual, h.Hex())
	})
}
