// Package config defines the service configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver is "sqlite" or "postgres"; DBDSN is passed to the driver.
	DBDriver string `koanf:"db_driver"`
	DBDSN    string `koanf:"db_dsn"`

	// ModelPath points at a YAML development model artifact. Empty means
	// the rule-based fallback is used for every player.
	ModelPath string `koanf:"model_path"`

	// WorkerCount sets the number of recalculation workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the recalculation queue.
	QueueSize int `koanf:"queue_size"`
	// PendingSize bounds the number of seasons with a queued recalculation.
	PendingSize int `koanf:"pending_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// SimilarTopN is the default number of similar players returned.
	SimilarTopN int `koanf:"similar_top_n"`

	// Expected-goal and expected-assist proxies applied when a source has
	// no measured xG or xA.
	XGProxyMultiplier float64 `koanf:"xg_proxy_multiplier"`
	XAProxyMultiplier float64 `koanf:"xa_proxy_multiplier"`

	// ProgressionWorkers bounds per-player parallelism of the progression
	// engine.
	ProgressionWorkers int `koanf:"progression_workers"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DBDriver:            "sqlite",
		DBDSN:               "talentscope.db",
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           10_000,
		PendingSize:         50_000,
		MaxLeaderboardLimit: 100,
		SimilarTopN:         5,
		XGProxyMultiplier:   0.85,
		XAProxyMultiplier:   0.75,
		ProgressionWorkers:  runtime.NumCPU(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate(_ context.Context) error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("db_driver %q is not sqlite or postgres", c.DBDriver))
	}
	if c.DBDSN == "" {
		problems = append(problems, "db_dsn must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q is not text or json", c.LogFormat))
	}
	for _, v := range []struct {
		name  string
		value int
	}{
		{"worker_count", c.WorkerCount},
		{"queue_size", c.QueueSize},
		{"max_leaderboard_limit", c.MaxLeaderboardLimit},
		{"similar_top_n", c.SimilarTopN},
		{"progression_workers", c.ProgressionWorkers},
	} {
		if v.value < 1 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got %d", v.name, v.value))
		}
	}
	if c.PendingSize < 0 {
		problems = append(problems, "pending_size must not be negative")
	}
	if c.XGProxyMultiplier < 0 || c.XAProxyMultiplier < 0 {
		problems = append(problems, "proxy multipliers must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
