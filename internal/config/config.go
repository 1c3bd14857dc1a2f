// Package config loads process settings from the environment and an
// optional YAML file. Every key is also an environment variable name.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/kv"
	"github.com/yourorg/rips-import/internal/runstate"
)

// ErrBackend rejects an unknown STATE_BACKEND.
var ErrBackend = errors.New("config: STATE_BACKEND must be badger, redis or memory")

// Config is the resolved settings.
type Config struct {
	StateBackend      string
	StateDir          string
	RedisAddr         string
	RedisPrefix       string
	BaseURL           string
	CDPURL            string
	ProfileDir        string
	Headless          bool
	PopupDelay        time.Duration
	PollInterval      time.Duration
	PollAttempts      int
	LogLevel          string
	MetricsAddr       string
	Port              string
	DBDSN             string
	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
}

var defaults = map[string]any{
	"STATE_BACKEND":       "badger",
	"STATE_DIR":           "./.rips-state",
	"REDIS_ADDR":          "localhost:6379",
	"REDIS_PREFIX":        "rips:",
	"RIPS_BASE_URL":       "http://rips.247lib.com",
	"CDP_URL":             "",
	"BROWSER_PROFILE_DIR": "./.rips-profile",
	"HEADLESS":            false,
	"POPUP_DELAY":         time.Second,
	"POLL_INTERVAL":       time.Second,
	"POLL_ATTEMPTS":       6,
	"LOG_LEVEL":           "info",
	"METRICS_ADDR":        ":9090",
	"PORT":                "8080",
	"DB_DSN":              "",
	"TEMPORAL_ADDRESS":    "localhost:7233",
	"TEMPORAL_NAMESPACE":  "default",
	"TEMPORAL_TASK_QUEUE": "rips-import",
}

// Load reads path when non-empty, then lets environment variables override.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	c := Config{
		StateBackend:      v.GetString("STATE_BACKEND"),
		StateDir:          v.GetString("STATE_DIR"),
		RedisAddr:         v.GetString("REDIS_ADDR"),
		RedisPrefix:       v.GetString("REDIS_PREFIX"),
		BaseURL:           v.GetString("RIPS_BASE_URL"),
		CDPURL:            v.GetString("CDP_URL"),
		ProfileDir:        v.GetString("BROWSER_PROFILE_DIR"),
		Headless:          v.GetBool("HEADLESS"),
		PopupDelay:        v.GetDuration("POPUP_DELAY"),
		PollInterval:      v.GetDuration("POLL_INTERVAL"),
		PollAttempts:      v.GetInt("POLL_ATTEMPTS"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		MetricsAddr:       v.GetString("METRICS_ADDR"),
		Port:              v.GetString("PORT"),
		DBDSN:             v.GetString("DB_DSN"),
		TemporalAddress:   v.GetString("TEMPORAL_ADDRESS"),
		TemporalNamespace: v.GetString("TEMPORAL_NAMESPACE"),
		TaskQueue:         v.GetString("TEMPORAL_TASK_QUEUE"),
	}
	switch c.StateBackend {
	case "badger", "redis", "memory":
	default:
		return Config{}, fmt.Errorf("%w: got %q", ErrBackend, c.StateBackend)
	}
	if c.PollAttempts < 1 {
		c.PollAttempts = 1
	}
	return c, nil
}

// Driver returns the handler delays with the configured overrides.
func (c Config) Driver() driver.Config {
	d := driver.DefaultConfig()
	d.PopupDelay = c.PopupDelay
	d.PollInterval = c.PollInterval
	d.PollAttempts = c.PollAttempts
	return d
}

// Browser returns the playwright session options.
func (c Config) Browser() browser.Options {
	return browser.Options{
		BaseURL:    c.BaseURL,
		CDPURL:     c.CDPURL,
		ProfileDir: c.ProfileDir,
		Headless:   c.Headless,
	}
}

// OpenKV opens the run state backend.
func (c Config) OpenKV(ctx context.Context) (kv.Store, error) {
	switch c.StateBackend {
	case "memory":
		return kv.NewMemory(), nil
	case "redis":
		r, err := kv.DialRedis(ctx, c.RedisAddr, c.RedisPrefix, runstate.StringKeys()...)
		if err != nil {
			return nil, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		return r, nil
	}
	b, err := kv.OpenBadger(c.StateDir)
	if err != nil {
		return nil, fmt.Errorf("badger %s: %w", c.StateDir, err)
	}
	return b, nil
}
