package config

import (
	"context"
	"errors"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given no configuration sources", t, func() {
		Convey("Then defaults are returned", func() {
			cfg, err := Load(ctx)

			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8090")
			So(cfg.BucketBronze, ShouldEqual, "bronze")
			So(cfg.BucketSilver, ShouldEqual, "silver")
			So(cfg.BucketGold, ShouldEqual, "gold")
			So(cfg.MaxEventsPerBatch, ShouldEqual, 10_000)
		})
	})

	Convey("Given environment overrides", t, func() {
		_ = os.Setenv("RAIDLAKE_ADDR", ":9999")
		_ = os.Setenv("RAIDLAKE_QUEUE_SIZE", "123")
		_ = os.Setenv("RAIDLAKE_BUCKET_SILVER", "silver-test")
		defer func() {
			_ = os.Unsetenv("RAIDLAKE_ADDR")
			_ = os.Unsetenv("RAIDLAKE_QUEUE_SIZE")
			_ = os.Unsetenv("RAIDLAKE_BUCKET_SILVER")
		}()

		cfg, err := Load(ctx)

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9999")
			So(cfg.QueueSize, ShouldEqual, 123)
			So(cfg.BucketSilver, ShouldEqual, "silver-test")
			So(cfg.BucketBronze, ShouldEqual, "bronze")
		})
	})

	Convey("Given an invalid configuration", t, func() {
		_ = os.Setenv("RAIDLAKE_ADDR", "")
		defer func() { _ = os.Unsetenv("RAIDLAKE_ADDR") }()

		_, err := Load(ctx)

		Convey("Then validation rejects it", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a missing config file", t, func() {
		_ = os.Setenv("RAIDLAKE_CONFIG", "/nonexistent/config.yaml")
		defer func() { _ = os.Unsetenv("RAIDLAKE_CONFIG") }()

		_, err := Load(ctx)

		Convey("Then loading fails with the load sentinel", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
		})
	})
}
