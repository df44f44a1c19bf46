// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - Validate reports the first invalid field wrapped in ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Database holds the PostgreSQL connection settings. An empty Host means
// no database: history and predictions stay in memory.
type Database struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// Enabled reports whether a database is configured.
func (d Database) Enabled() bool { return d.Host != "" }

// DSN returns the libpq connection string.
func (d Database) DSN() string {
	parts := []string{
		"host=" + d.Host,
		fmt.Sprintf("port=%d", d.Port),
		"dbname=" + d.Name,
		"user=" + d.User,
		"sslmode=" + d.SSLMode,
	}
	if d.Password != "" {
		parts = append(parts, "password="+d.Password)
	}
	return strings.Join(parts, " ")
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of batch analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory fixture queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the size of the pending fixture id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Store access policy.
	StoreTimeoutMS     int     `koanf:"store_timeout_ms"`
	StoreRetryJitterMS int     `koanf:"store_retry_jitter_ms"`
	StoreRateLimit     float64 `koanf:"store_rate_limit"`

	// FixtureBudgetMS bounds the analysis time of one fixture.
	FixtureBudgetMS int `koanf:"fixture_budget_ms"`

	// Monte Carlo engine.
	MCSimulations int     `koanf:"mc_simulations"`
	MCSeed        int64   `koanf:"mc_seed"`
	MCWorkers     int     `koanf:"mc_workers"`
	RedCardRate   float64 `koanf:"red_card_rate"`

	// SteamWindowHours is the look-back of the steam detector.
	SteamWindowHours int `koanf:"steam_window_hours"`

	// ModelVersion is stamped on picks and names the prediction table.
	ModelVersion string `koanf:"model_version"`

	// Season pins the DNA season; empty derives it from the kick-off date.
	Season string `koanf:"season"`

	// AliasesPath is an optional YAML alias table merged over the built-in one.
	AliasesPath string `koanf:"aliases_path"`

	// RedisAddr enables the shared DNA cache when set.
	RedisAddr    string `koanf:"redis_addr"`
	DNACacheTTLS int    `koanf:"dna_cache_ttl_s"`

	// Meta-learner.
	MetaMinPicks    int     `koanf:"meta_min_picks"`
	MetaWindowDays  int     `koanf:"meta_window_days"`
	MetaWeeklyDecay float64 `koanf:"meta_weekly_decay"`
	RecordThreshold int     `koanf:"record_threshold"`

	// LayerWeights overrides default layer weights by layer name.
	LayerWeights map[string]float64 `koanf:"layer_weights"`

	Database Database `koanf:"database"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		WorkerCount:        runtime.NumCPU(),
		QueueSize:          10_000,
		DedupeSize:         50_000,
		StoreTimeoutMS:     3000,
		StoreRetryJitterMS: 100,
		FixtureBudgetMS:    5000,
		MCSimulations:      10_000,
		MCSeed:             42,
		MCWorkers:          runtime.NumCPU(),
		RedCardRate:        0.04,
		SteamWindowHours:   4,
		ModelVersion:       "v10",
		DNACacheTTLS:       12 * 60 * 60,
		MetaMinPicks:       30,
		MetaWindowDays:     30,
		MetaWeeklyDecay:    0.95,
		RecordThreshold:    50,
		Database: Database{
			Port:    5432,
			Name:    "matchquant",
			User:    "matchquant",
			SSLMode: "disable",
		},
	}
}

// Validate checks the settings that would otherwise fail deep inside a
// component.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MCSimulations <= 0:
		return fmt.Errorf("%w: mc_simulations must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelVersion) == "":
		return fmt.Errorf("%w: model_version must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.FixtureBudgetMS <= 0:
		return fmt.Errorf("%w: fixture_budget_ms must be positive", ErrInvalidConfig)
	case c.RedCardRate < 0 || c.RedCardRate > 1:
		return fmt.Errorf("%w: red_card_rate must be within 0..1", ErrInvalidConfig)
	case c.MetaWeeklyDecay <= 0 || c.MetaWeeklyDecay > 1:
		return fmt.Errorf("%w: meta_weekly_decay must be within (0, 1]", ErrInvalidConfig)
	case c.StoreRateLimit < 0:
		return fmt.Errorf("%w: store_rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Durations.

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

func (c *Config) StoreRetryJitter() time.Duration {
	return time.Duration(c.StoreRetryJitterMS) * time.Millisecond
}

func (c *Config) FixtureBudget() time.Duration {
	return time.Duration(c.FixtureBudgetMS) * time.Millisecond
}

func (c *Config) SteamWindow() time.Duration {
	return time.Duration(c.SteamWindowHours) * time.Hour
}

func (c *Config) DNACacheTTL() time.Duration {
	return time.Duration(c.DNACacheTTLS) * time.Second
}

func (c *Config) MetaWindow() time.Duration {
	return time.Duration(c.MetaWindowDays) * 24 * time.Hour
}
