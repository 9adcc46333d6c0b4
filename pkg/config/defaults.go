package config

import (
	"strings"
	"time"

	"github.com/brokerlabs/leasebroker/internal/bytesize"
)

// GetDefaultConfig returns a Config populated entirely with defaults.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any zero-valued field of cfg with its default.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyReaperDefaults(&cfg.Reaper)
	applyLeaseDefaults(&cfg.Lease)
	applyFrameDefaults(&cfg.Frame)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyAdminDefaults(&cfg.Admin)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyReaperDefaults(cfg *ReaperConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
}

func applyLeaseDefaults(cfg *LeaseConfig) {
	if cfg.DefaultDuration == 0 {
		cfg.DefaultDuration = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

func applyFrameDefaults(cfg *FrameConfig) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 10 * bytesize.MiB
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9001
	}
}
