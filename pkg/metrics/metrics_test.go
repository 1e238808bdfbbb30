package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the custom names", func() {
				So(manager, ShouldNotBeNil)
				manager.playersScored.Inc()

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_players_scored_total"], ShouldBeTrue)
			})
		})

		Convey("When options carry empty values", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "talentscope")
				So(manager.subsystem, ShouldEqual, "ratings")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording a scored player", func() {
			before := testutil.ToFloat64(globalManager.playersScored)
			RecordPlayerScored("Very High", 91.2)

			Convey("Then the counter moves by one", func() {
				So(testutil.ToFloat64(globalManager.playersScored), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.confidenceTiers.WithLabelValues("Very High")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording fallbacks and repairs", func() {
			RecordPredictorFallback("no_model")
			RecordProgressionRepair("next_season")

			Convey("Then labelled counters are populated", func() {
				So(testutil.ToFloat64(globalManager.predictorFallbacks.WithLabelValues("no_model")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.progressionRepairs.WithLabelValues("next_season")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(12)
			UpdateQueueCapacity(100)
			UpdateLeaderboardPlayers(42)
			UpdateRepositoryRows(64)
			RecordProgressionRun(64, 3.5)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.leaderboardPlayers), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.repositoryRows), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.progressionRows), ShouldEqual, 64)
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordScoringLatency(0.4)
				RecordLeaderboardUpdate()
				RecordRepositoryQueryLatency(1.5)
				RecordRepositoryUpdateLatency(2.5)
				RecordImport(10, 2)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordJobDuplicate()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
				RecordHTTPRequest("/leaderboard", "GET", "200")
				RecordHTTPRequestDuration("/leaderboard", "GET", "200", 4)
				RecordErrorByComponent("repository", "query")
				RecordErrorByEndpoint("/players", "GET", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})

		Convey("When gathering from the exported registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then it succeeds", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
