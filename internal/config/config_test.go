package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentscope/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.SimilarTopN, convey.ShouldEqual, 5)
			convey.So(cfg.XGProxyMultiplier, convey.ShouldEqual, 0.85)
			convey.So(cfg.XAProxyMultiplier, convey.ShouldEqual, 0.75)
			convey.So(cfg.Validate(context.Background()), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an invalid config", t, func() {
		cfg := config.New()
		cfg.DBDriver = "mysql"
		cfg.WorkerCount = 0
		cfg.LogFormat = "xml"

		err := cfg.Validate(ctx)

		convey.Convey("Then every problem is reported under ErrInvalidConfig", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "db_driver")
			convey.So(err.Error(), convey.ShouldContainSubstring, "worker_count")
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
		})
	})

	convey.Convey("Given negative proxy multipliers", t, func() {
		cfg := config.New()
		cfg.XAProxyMultiplier = -1
		convey.So(errors.Is(cfg.Validate(ctx), config.ErrInvalidConfig), convey.ShouldBeTrue)
	})
}
