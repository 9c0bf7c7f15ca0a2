package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should use the service namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "livescore")
				So(manager.subsystem, ShouldEqual, "ingest")
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "sub")
				So(manager.histogramBuckets, ShouldResemble, []float64{1, 5, 10})
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.constLabels["env"], ShouldEqual, "test")
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(0),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "livescore")
				So(manager.subsystem, ShouldEqual, "ingest")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When reading its settings", func() {
			Convey("Then the defaults are exposed", func() {
				So(Enabled(), ShouldBeTrue)
				So(RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.reportsReceived)
			RecordReportReceived()
			RecordReportReceived()

			inserted := testutil.ToFloat64(globalManager.reconcileOutcomes.WithLabelValues("inserted"))
			RecordReconcileOutcome("inserted")

			malformed := testutil.ToFloat64(globalManager.decodeFailures.WithLabelValues("malformed"))
			RecordDecodeFailure("malformed")

			wrong := testutil.ToFloat64(globalManager.authFailures.WithLabelValues("wrong_password"))
			RecordAuthFailure("wrong_password")

			Convey("Then the counters should move", func() {
				So(testutil.ToFloat64(globalManager.reportsReceived), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.reconcileOutcomes.WithLabelValues("inserted")), ShouldEqual, inserted+1)
				So(testutil.ToFloat64(globalManager.decodeFailures.WithLabelValues("malformed")), ShouldEqual, malformed+1)
				So(testutil.ToFloat64(globalManager.authFailures.WithLabelValues("wrong_password")), ShouldEqual, wrong+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateScoreboardRows(12)
			UpdateUsers(3)
			UpdateSystemGoroutineCount(7)
			UpdateSystemMemoryUsage(1024)

			Convey("Then they should hold the last value", func() {
				So(testutil.ToFloat64(globalManager.scoreboardRow), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.usersTotal), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.systemMemoryUsage), ShouldEqual, 1024)
			})
		})

		Convey("When recording histograms and HTTP metrics", func() {
			Convey("Then nothing should panic", func() {
				So(func() {
					RecordStoreLatency("find_row", 1.5)
					RecordStoreError("insert_row")
					RecordRegistration()
					RecordHTTPRequest("submit", "POST", "200")
					RecordHTTPRequestDuration("submit", "POST", "200", 3)
					RecordErrorByEndpoint("submit", "POST", "client_error")
					RecordErrorByType("client_error", "medium")
					RecordSystemGCPauseTime(0.4)
				}, ShouldNotPanic)
			})
		})

		Convey("When gathering the registry", func() {
			RecordReportReceived()
			families, err := GetRegistry().Gather()

			Convey("Then the service metrics should be exported", func() {
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "livescore_ingest_reports_received_total")
			})
		})
	})
}
