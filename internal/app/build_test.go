package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/gscore/internal/adapters/blob"
	service "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuild(t *testing.T) {
	Convey("Given the default config", t, func() {
		ctx := context.Background()
		cfg := config.New()

		Convey("When a service is built", func() {
			svc, err := service.Build(ctx, cfg, service.WithCollector(collector()), service.WithClock(fixedNow))
			So(err, ShouldBeNil)
			Reset(func() { _ = svc.Close() })

			Convey("Then it runs on the in-memory backends", func() {
				So(svc.FDCEnabled(), ShouldBeTrue)
				stored, err := svc.StoreScore(ctx, walletA, "alice", 10)
				So(err, ShouldBeNil)
				So(stored.Score, ShouldEqual, 10)
			})
		})

		Convey("When file flags and a local blob store are configured", func() {
			dir := t.TempDir()
			cfg.FlagsBackend = "file"
			cfg.FlagsPath = filepath.Join(dir, "flags.json")
			cfg.BlobBackend = config.BlobLocal
			cfg.BlobDir = dir
			So(cfg.Validate(ctx), ShouldBeNil)

			svc, err := service.Build(ctx, cfg, service.WithCollector(collector()), service.WithClock(fixedNow))
			So(err, ShouldBeNil)

			_, err = svc.VerifyAndStore(ctx, walletA, "alice", "")
			So(err, ShouldBeNil)
			_, err = svc.VerifyAndStore(ctx, walletA, "bob", "")
			So(err, ShouldNotBeNil)
			_, err = svc.RunBatch(ctx, []string{"alice"})
			So(err, ShouldBeNil)
			So(svc.Close(), ShouldBeNil)

			Convey("Then flags and the batch snapshot survive a rebuild", func() {
				again, err := service.Build(ctx, cfg, service.WithCollector(collector()))
				So(err, ShouldBeNil)
				defer func() { _ = again.Close() }()

				_, flagged, err := again.FlagStatus(ctx, "bob")
				So(err, ShouldBeNil)
				So(flagged, ShouldBeTrue)

				rep, ok, err := again.Recommendations(ctx)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rep.Outcomes, ShouldHaveLength, 1)

				_, err = blob.NewLocal(dir).Get(ctx, "recommendations/latest.json")
				So(err, ShouldBeNil)
			})
		})

		Convey("When the evm ledger has no contract", func() {
			cfg.LedgerBackend = config.LedgerEVM
			svc, err := service.Build(ctx, cfg)
			So(err, ShouldBeNil)
			Reset(func() { _ = svc.Close() })

			Convey("Then verified stores are disabled", func() {
				So(svc.FDCEnabled(), ShouldBeFalse)
			})
		})

		Convey("When the flag backend is unknown", func() {
			cfg.FlagsBackend = "paper"

			Convey("Then building fails", func() {
				_, err := service.Build(ctx, cfg)
				So(err, ShouldNotBeNil)
			})
		})
	})
}
