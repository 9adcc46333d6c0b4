// Package config loads the broker's configuration from defaults, a YAML
// file, and environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/brokerlabs/leasebroker/internal/bytesize"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the broker's complete runtime configuration.
//
// Configuration sources, in order of precedence:
//  1. Environment variables (BROKER_*)
//  2. Configuration file
//  3. Default values
//
// An environment variable overrides only a key that also appears in the
// configuration file; when no file is found, environment variables are not
// read.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Reaper    ReaperConfig    `mapstructure:"reaper" yaml:"reaper"`
	Lease     LeaseConfig     `mapstructure:"lease" yaml:"lease"`
	Frame     FrameConfig     `mapstructure:"frame" yaml:"frame"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Admin     AdminConfig     `mapstructure:"admin" yaml:"admin"`
}

// ServerConfig controls the TCP connection frontend.
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required" yaml:"host"`
	Port            int           `mapstructure:"port" validate:"required,gt=0,lte=65535" yaml:"port"`
	MaxConnections  int           `mapstructure:"max_connections" validate:"gte=0" yaml:"max_connections"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// ReaperConfig controls the background lease-expiry sweep.
type ReaperConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"required,gt=0" yaml:"interval"`
}

// LeaseConfig controls default lease behavior.
type LeaseConfig struct {
	DefaultDuration time.Duration `mapstructure:"default_duration" validate:"required,gt=0" yaml:"default_duration"`
	MaxRetries      int           `mapstructure:"max_retries" validate:"required,gt=0" yaml:"max_retries"`
}

// FrameConfig holds the frame size setting. The wire codec does not read
// it: frames are always capped at wire.MaxFrameSize (10 MiB).
type FrameConfig struct {
	MaxSize bytesize.ByteSize `mapstructure:"max_size" validate:"required" yaml:"max_size"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"required_if=Enabled true,omitempty,gt=0,lte=65535" yaml:"port"`
}

// AdminConfig controls the admin HTTP surface (/healthz, /readyz, and
// /metrics when Metrics.Enabled).
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"required_if=Enabled true,omitempty,gt=0,lte=65535" yaml:"port"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// Load loads configuration from file, environment, and defaults, applying
// defaults and validating the result.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := GetDefaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks cfg against its struct tags using go-playground/validator.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures environment variable and config file lookup.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks composes the custom mapstructure decode hooks needed
// for ByteSize and time.Duration fields.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the directory config files are looked up in.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "leasebroker")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "leasebroker")
	}
	return "."
}

// GetDefaultConfigPath returns the default config file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default path.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// InitConfig writes a starter configuration file to the default path,
// returning that path. It refuses to overwrite an existing file unless
// force is true.
func InitConfig(force bool) (string, error) {
	return GetDefaultConfigPath(), InitConfigToPath(GetDefaultConfigPath(), force)
}

// InitConfigToPath writes a starter configuration file to path, populated
// entirely with defaults. It refuses to overwrite an existing file unless
// force is true.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	return SaveConfig(GetDefaultConfig(), path)
}
