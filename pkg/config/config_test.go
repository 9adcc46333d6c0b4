package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Lease.MaxRetries)
	assert.NoError(t, Validate(cfg))
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9100
	cfg.Logging.Level = "debug"

	ApplyDefaults(cfg)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsMetricsEnabledWithoutPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0

	err := Validate(cfg)
	require.Error(t, err)
}

func TestLoadWithNoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}
