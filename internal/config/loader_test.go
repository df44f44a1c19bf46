package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/matchquant/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.RedCardRate, convey.ShouldEqual, 0.04)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("QUANT_ADDR", ":8080")
			_ = os.Setenv("QUANT_QUEUE_SIZE", "500")
			_ = os.Setenv("QUANT_MC_SIMULATIONS", "2000")
			_ = os.Setenv("QUANT_MODEL_VERSION", "v11")
			_ = os.Setenv("QUANT_REDIS_ADDR", "localhost:6379")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.MCSimulations, convey.ShouldEqual, 2000)
				convey.So(cfg.ModelVersion, convey.ShouldEqual, "v11")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
			})
		})

		convey.Convey("When database variables are set", func() {
			_ = os.Setenv("DB_HOST", "pg.internal")
			_ = os.Setenv("DB_PORT", "6432")
			_ = os.Setenv("DB_NAME", "quant")
			_ = os.Setenv("DB_USER", "svc")
			_ = os.Setenv("DB_PASSWORD", "secret")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the database section is filled", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Database.Enabled(), convey.ShouldBeTrue)
				convey.So(cfg.Database.Port, convey.ShouldEqual, 6432)
				convey.So(cfg.Database.DSN(), convey.ShouldEqual,
					"host=pg.internal port=6432 dbname=quant user=svc sslmode=disable password=secret")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 6
mc_seed: 7
season: "2025-26"
layer_weights:
  mc: 30
  lineup: 12
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUANT_CONFIG", tmpFile)
			_ = os.Setenv("QUANT_WORKER_COUNT", "3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values load and env overrides them", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.MCSeed, convey.ShouldEqual, int64(7))
				convey.So(cfg.Season, convey.ShouldEqual, "2025-26")
				convey.So(cfg.LayerWeights, convey.ShouldResemble, map[string]float64{"mc": 30, "lineup": 12})
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("QUANT_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("QUANT_CONFIG", "/non/existent/matchquant.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("QUANT_MC_SIMULATIONS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the invalid field is reported", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "mc_simulations")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"QUANT_CONFIG",
		"QUANT_ADDR",
		"QUANT_QUEUE_SIZE",
		"QUANT_WORKER_COUNT",
		"QUANT_MC_SIMULATIONS",
		"QUANT_MODEL_VERSION",
		"QUANT_REDIS_ADDR",
		"DB_HOST",
		"DB_PORT",
		"DB_NAME",
		"DB_USER",
		"DB_PASSWORD",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchquant-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
