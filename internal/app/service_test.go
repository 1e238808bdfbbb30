package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	repository "github.com/okian/talentscope/internal/adapters/repository"
	service "github.com/okian/talentscope/internal/app"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
	_ = logger.SetLevelString("warn")
}

func newMemoryService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithDB("sqlite", ":memory:"),
		service.WithWorkerCount(2),
		service.WithQueueSize(100),
		service.WithPendingSize(100),
		service.WithProgressionWorkers(2),
	}
	return service.New(append(base, opts...)...)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats, err := svc.GetStats(context.Background())
			So(err, ShouldBeNil)
			So(stats.Started, ShouldBeFalse)
			So(stats.QueueCapacity, ShouldEqual, 10_000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithPendingSize(25_000),
			service.WithSimilarTopN(3),
			service.WithProxies(0.9, 0.7),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			stats, _ := svc.GetStats(context.Background())
			So(stats.Workers, ShouldEqual, 8)
			So(stats.QueueCapacity, ShouldEqual, 50_000)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newMemoryService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Ensure service is stopped after test
		defer svc.Stop(ctx)

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats, err := svc.GetStats(ctx)
				So(err, ShouldBeNil)
				So(stats.Started, ShouldBeTrue)
				So(stats.Workers, ShouldEqual, 2)
				So(stats.ModelLoaded, ShouldBeFalse)
				So(stats.Population, ShouldNotBeNil)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When the model artifact does not exist", func() {
			bad := newMemoryService(service.WithModelPath("/does/not/exist.yaml"))
			err := bad.Start(ctx)

			Convey("Then Start fails", func() {
				So(err, ShouldNotBeNil)
				stats, _ := bad.GetStats(ctx)
				So(stats.Started, ShouldBeFalse)
			})
		})

		Convey("When the database driver is unknown", func() {
			bad := service.New(service.WithDB("oracle", "x"))
			So(bad.Start(ctx), ShouldNotBeNil)
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newMemoryService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped", func() {
				stats, _ := svc.GetStats(ctx)
				So(stats.Started, ShouldBeFalse)
			})

			Convey("And stopping again is a no-op", func() {
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Every operation reports ErrNotStarted", func() {
			_, err := svc.Player(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.TopN(ctx, 10, "")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.Score(ctx, model.PlayerSeason{Name: "Ada"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.EnqueueRecalculation(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.Import(ctx, nil, false)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestService_Score(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newMemoryService(service.WithClock(func() time.Time {
			return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		}))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("Scoring a season does not store it", func() {
			b, err := svc.Score(ctx, model.PlayerSeason{
				Name: "Ada", Position: model.Forward, Age: 17,
				Matches: 25, Minutes: 2000, Goals: 15, Assists: 6,
			})
			So(err, ShouldBeNil)
			So(b.PredictedPotential, ShouldBeBetweenOrEqual, 0, 100)
			So(b.ScoredAt.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)

			players, err := svc.Players(ctx, repository.ListOpts{})
			So(err, ShouldBeNil)
			So(players, ShouldBeEmpty)
		})

		Convey("Progression requires a name", func() {
			_, err := svc.Progression(ctx, "")
			So(errors.Is(err, service.ErrEmptyName), ShouldBeTrue)
		})
	})
}
