package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	app "github.com/okian/gscore/internal/app"
	"github.com/okian/gscore/internal/config"
	"github.com/okian/gscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("GSCORE_ADDR", ":8080")
			_ = os.Setenv("GSCORE_BATCH_QUEUE_SIZE", "4")
			defer func() {
				_ = os.Unsetenv("GSCORE_ADDR")
				_ = os.Unsetenv("GSCORE_BATCH_QUEUE_SIZE")
			}()

			convey.Convey("Then a service can be built from it", func() {
				ctx := context.Background()
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BatchQueueSize, convey.ShouldEqual, 4)

				svc, err := app.Build(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				convey.So(svc.GetStats()["queueSize"], convey.ShouldEqual, 4)
				convey.So(svc.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the routes are registered", func() {
			ctx := context.Background()
			svc := app.New()
			mux := newMux(ctx, svc)

			convey.Convey("Then docs and API routes share the mux", func() {
				for _, path := range []string{"/health", "/healthz", "/stats", "/openapi.yaml", "/api-docs", "/api/leaderboard"} {
					w := httptest.NewRecorder()
					mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("GSCORE_LEDGER_BACKEND", "paper")
			defer func() { _ = os.Unsetenv("GSCORE_LEDGER_BACKEND") }()

			convey.Convey("Then run fails before serving", func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				convey.So(run(ctx), convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the metrics updaters run until cancelled", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.Convey("Then they return without panicking", func() {
				convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
				convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When metrics are updated directly", func() {
			svc := app.New()
			convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then nothing panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When a metrics manager is created on its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))

			convey.Convey("Then it is usable", func() {
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}
