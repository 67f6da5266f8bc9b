package lock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/okian/gscore/internal/adapters/ledger"
	"github.com/okian/gscore/internal/domain/lock"
	. "github.com/smartystreets/goconvey/convey"
)

type failingReader struct{ err error }

func (f failingReader) LatestScore(context.Context, common.Address) (ledger.Record, error) {
	return ledger.Record{}, f.err
}

func TestGuard(t *testing.T) {
	Convey("Given a guard over a memory ledger", t, func() {
		ctx := context.Background()
		l := ledger.NewMemory()
		g := lock.NewGuard(l)
		w := common.HexToAddress("0x00000000000000000000000000000000000000a1")

		Convey("An unbound wallet accepts any identity", func() {
			So(g.Check(ctx, w, "alice"), ShouldBeNil)
		})

		Convey("When the wallet is bound to alice", func() {
			_, _ = l.StoreScore(ctx, w, "alice", 10, 1)

			Convey("The same identity is accepted regardless of case", func() {
				So(g.Check(ctx, w, "alice"), ShouldBeNil)
				So(g.Check(ctx, w, "ALICE"), ShouldBeNil)
			})

			Convey("A different identity is a violation naming the bound identity", func() {
				err := g.Check(ctx, w, "bob")
				So(lock.IsViolation(err), ShouldBeTrue)

				var v *lock.Violation
				So(errors.As(err, &v), ShouldBeTrue)
				So(v.ExistingIdentity, ShouldEqual, "alice")
				So(v.AttemptedIdentity, ShouldEqual, "bob")
				So(v.Reason(), ShouldEqual, "Wallet locked to alice")
				So(err.Error(), ShouldContainSubstring, `already locked to GitHub username "alice"`)
			})
		})

		Convey("Other read failures are surfaced", func() {
			boom := errors.New("rpc down")
			err := lock.NewGuard(failingReader{err: boom}).Check(ctx, w, "alice")
			So(errors.Is(err, boom), ShouldBeTrue)
			So(lock.IsViolation(err), ShouldBeFalse)
		})
	})
}
