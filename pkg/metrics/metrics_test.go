package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				So(m, ShouldNotBeNil)
				m.scoresComputed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_scores_computed_total"], ShouldBeTrue)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given a manager installed as global", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))
		So(SetGlobal(m), ShouldBeNil)
		Reset(func() {
			_ = SetGlobal(NewManager(WithPrometheusRegistry(prometheus.NewRegistry())))
		})

		Convey("When recording domain events", func() {
			RecordScore(640)
			RecordScore(100)
			RecordAttestation()
			RecordLockViolation()
			RecordFlag("lock_violation")
			RecordLedgerOp("store_verified", "ok", 12)
			RecordBatch(3, 1, 250)
			RecordUpstreamRequest("user", "2xx", 40)
			RecordHTTPRequest("verify", "POST", "200", 15)
			RecordHTTPError("verify", "POST", "client_error")
			UpdateQueueSize(2)

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(m.scoresComputed), ShouldEqual, 2)
				So(testutil.ToFloat64(m.attestations), ShouldEqual, 1)
				So(testutil.ToFloat64(m.lockViolations), ShouldEqual, 1)
				So(testutil.ToFloat64(m.flagsRecorded.WithLabelValues("lock_violation")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.ledgerOps.WithLabelValues("store_verified", "ok")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.batchIdentities.WithLabelValues("scored")), ShouldEqual, 3)
				So(testutil.ToFloat64(m.batchIdentities.WithLabelValues("error")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.queueSize), ShouldEqual, 2)
			})
		})

		Convey("When installing a nil manager", func() {
			err := SetGlobal(nil)

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, ErrNoManager)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("The default registry is exposed", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
	})
}
