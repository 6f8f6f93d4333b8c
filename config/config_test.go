package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Mode:             DefaultMode,
		LogLevel:         "info",
		RegistryCapacity: DefaultRegistryCapacity,
		MaxFrame:         DefaultMaxFrame,
		LMTimeout:        60 * time.Second,
		ProbeTimeout:     15 * time.Second,
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "pool-worker", cfg.Mode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 1024, cfg.RegistryCapacity)
	assert.Equal(t, uint32(16<<20), cfg.MaxFrame)
	assert.Equal(t, 60*time.Second, cfg.LMTimeout)
	assert.Equal(t, 15*time.Second, cfg.ProbeTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LMBRIDGE_LOG_LEVEL", "debug")
	t.Setenv("LMBRIDGE_METRICS_ADDR", "127.0.0.1:9464")
	t.Setenv("LMBRIDGE_REGISTRY_CAPACITY", "64")
	t.Setenv("LMBRIDGE_LM_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
	assert.Equal(t, 64, cfg.RegistryCapacity)
	assert.Equal(t, 90*time.Second, cfg.LMTimeout)
}

func TestLoadGeminiKeyFromConventionalEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "conventional-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "conventional-key", cfg.GeminiAPIKey)
}

func TestLoadGeminiKeyPrefersPrefixedEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "conventional-key")
	t.Setenv("LMBRIDGE_GEMINI_API_KEY", "prefixed-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-key", cfg.GeminiAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "unsupported mode",
			mutate:  func(c *Config) { c.Mode = "server" },
			wantErr: "unsupported mode",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "unknown log level",
		},
		{
			name:    "zero registry capacity",
			mutate:  func(c *Config) { c.RegistryCapacity = 0 },
			wantErr: "registry capacity",
		},
		{
			name:    "zero max frame",
			mutate:  func(c *Config) { c.MaxFrame = 0 },
			wantErr: "max frame",
		},
		{
			name:    "zero probe timeout",
			mutate:  func(c *Config) { c.ProbeTimeout = 0 },
			wantErr: "probe timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := validConfig()

	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	cfg.LogLevel = "WARN"
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
	cfg.LogLevel = "error"
	assert.Equal(t, slog.LevelError, cfg.SlogLevel())
	cfg.LogLevel = "info"
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
