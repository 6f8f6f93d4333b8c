// Package config loads bridge worker settings from an optional config
// file, the environment and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultMode is the only execution mode the worker supports.
	DefaultMode = "pool-worker"

	// DefaultRegistryCapacity bounds the in-memory program registry.
	DefaultRegistryCapacity = 1024

	// DefaultMaxFrame is the largest request or response frame accepted.
	DefaultMaxFrame = 16 << 20
)

// Config holds the resolved worker settings.
type Config struct {
	Mode             string
	LogLevel         string
	MetricsAddr      string
	RegistryCapacity int
	MaxFrame         uint32
	LMTimeout        time.Duration
	ProbeTimeout     time.Duration
	GeminiAPIKey     string
}

// Load resolves configuration with precedence defaults < config file
// < environment. The config file is optional: lmbridge.yaml in the
// working directory or under $HOME/.lmbridge. Environment variables
// use the LMBRIDGE_ prefix; the Gemini key is also read from the
// conventional GEMINI_API_KEY.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("lmbridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.lmbridge")

	v.SetEnvPrefix("LMBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini_api_key", "LMBRIDGE_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	v.SetDefault("mode", DefaultMode)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("registry_capacity", DefaultRegistryCapacity)
	v.SetDefault("max_frame", DefaultMaxFrame)
	v.SetDefault("lm_timeout", "60s")
	v.SetDefault("probe_timeout", "15s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{
		Mode:             v.GetString("mode"),
		LogLevel:         v.GetString("log_level"),
		MetricsAddr:      v.GetString("metrics_addr"),
		RegistryCapacity: v.GetInt("registry_capacity"),
		MaxFrame:         v.GetUint32("max_frame"),
		LMTimeout:        v.GetDuration("lm_timeout"),
		ProbeTimeout:     v.GetDuration("probe_timeout"),
		GeminiAPIKey:     v.GetString("gemini_api_key"),
	}, nil
}

// Validate rejects settings the worker cannot run with.
func (c *Config) Validate() error {
	if c.Mode != DefaultMode {
		return fmt.Errorf("unsupported mode %q: only %s is available", c.Mode, DefaultMode)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.RegistryCapacity <= 0 {
		return fmt.Errorf("registry capacity must be positive, got %d", c.RegistryCapacity)
	}
	if c.MaxFrame == 0 {
		return errors.New("max frame must be positive")
	}
	if c.LMTimeout <= 0 {
		return errors.New("lm timeout must be positive")
	}
	if c.ProbeTimeout <= 0 {
		return errors.New("probe timeout must be positive")
	}
	return nil
}

// SlogLevel maps the configured log level to a slog.Level. Validate
// catches unknown names; anything else falls back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
