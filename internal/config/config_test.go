package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/matchquant/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.MCSimulations, convey.ShouldEqual, 10_000)
			convey.So(cfg.MCSeed, convey.ShouldEqual, int64(42))
			convey.So(cfg.ModelVersion, convey.ShouldEqual, "v10")
			convey.So(cfg.Database.Enabled(), convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from the numeric settings", func() {
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.StoreRetryJitter(), convey.ShouldEqual, 100*time.Millisecond)
			convey.So(cfg.FixtureBudget(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.SteamWindow(), convey.ShouldEqual, 4*time.Hour)
			convey.So(cfg.MetaWindow(), convey.ShouldEqual, 30*24*time.Hour)
			convey.So(cfg.DNACacheTTL(), convey.ShouldEqual, 12*time.Hour)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(*config.Config){
			"addr":              func(c *config.Config) { c.Addr = " " },
			"mc_simulations":    func(c *config.Config) { c.MCSimulations = 0 },
			"model_version":     func(c *config.Config) { c.ModelVersion = "" },
			"queue_size":        func(c *config.Config) { c.QueueSize = 0 },
			"fixture_budget_ms": func(c *config.Config) { c.FixtureBudgetMS = -1 },
			"red_card_rate":     func(c *config.Config) { c.RedCardRate = 1.5 },
			"meta_weekly_decay": func(c *config.Config) { c.MetaWeeklyDecay = 0 },
			"store_rate_limit":  func(c *config.Config) { c.StoreRateLimit = -2 },
		}
		for field, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, field)
		}
	})
}

func TestDatabase_DSN(t *testing.T) {
	convey.Convey("Given database settings", t, func() {
		db := config.Database{Host: "pg", Port: 5433, Name: "quant", User: "svc", SSLMode: "disable"}

		convey.Convey("Then the DSN omits an empty password", func() {
			convey.So(db.Enabled(), convey.ShouldBeTrue)
			convey.So(db.DSN(), convey.ShouldEqual, "host=pg port=5433 dbname=quant user=svc sslmode=disable")
		})

		convey.Convey("Then a password is appended", func() {
			db.Password = "secret"
			convey.So(db.DSN(), convey.ShouldEndWith, " password=secret")
		})
	})
}
