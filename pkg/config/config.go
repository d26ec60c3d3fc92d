// Package config loads and validates the assistant SDK's client-side
// configuration: logging, telemetry, channel topology, UX timers, and the
// optional audit/archive/diagnostics subsystems.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the assistant SDK's client-side configuration.
//
// Configuration sources, in order of precedence:
//  1. CLI flags (bound by cmd/vassistctl)
//  2. Environment variables (VASSIST_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Channels configures the Focus Manager's physical and virtual
	// channel topology.
	Channels ChannelsConfig `mapstructure:"channels" yaml:"channels"`

	// Timers configures the Dialog UX Aggregator's three timeouts.
	Timers TimersConfig `mapstructure:"timers" yaml:"timers"`

	// AuditStore configures the optional UX/focus audit log.
	AuditStore AuditStoreConfig `mapstructure:"audit_store" yaml:"audit_store"`

	// Archive configures the optional S3 snapshot uploader.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	// Diagnostics configures the optional read-only diagnostics HTTP API.
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`

	// Metrics configures the Prometheus metrics HTTP server.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Durable configures the optional badger-backed directive WAL.
	Durable DurableConfig `mapstructure:"durable" yaml:"durable"`

	// Transport configures the optional reference gRPC directive
	// transport adapter.
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing and Pyroscope profiling.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls continuous profiling via Pyroscope.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ChannelConfig is one named, prioritized focus channel.
type ChannelConfig struct {
	Name     string `mapstructure:"name" validate:"required" yaml:"name"`
	Priority uint32 `mapstructure:"priority" yaml:"priority"`
}

// ChannelsConfig holds the physical and virtual channel lists passed to
// focus.NewManager.
type ChannelsConfig struct {
	Physical []ChannelConfig `mapstructure:"physical" yaml:"physical"`
	Virtual  []ChannelConfig `mapstructure:"virtual" yaml:"virtual"`
}

// TimersConfig holds the Dialog UX Aggregator's three timeouts, in
// milliseconds. Zero values fall back to the documented defaults.
type TimersConfig struct {
	ThinkingToIdleMs      int `mapstructure:"thinking_to_idle_ms" validate:"omitempty,gt=0" yaml:"thinking_to_idle_ms"`
	ShortThinkingToIdleMs int `mapstructure:"short_thinking_to_idle_ms" validate:"omitempty,gt=0" yaml:"short_thinking_to_idle_ms"`
	ListeningToIdleMs     int `mapstructure:"listening_to_idle_ms" validate:"omitempty,gt=0" yaml:"listening_to_idle_ms"`
}

// AuditStoreConfig configures the optional UX/focus audit log, backed by
// either an embedded sqlite file or a fleet-managed Postgres database.
type AuditStoreConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver         string `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres" yaml:"driver"`
	DSN            string `mapstructure:"dsn" yaml:"dsn"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start" yaml:"migrate_on_start"`
}

// ArchiveConfig configures the best-effort S3 snapshot uploader.
type ArchiveConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Bucket   string        `mapstructure:"bucket" validate:"required_if=Enabled true" yaml:"bucket"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	Region   string        `mapstructure:"region" yaml:"region"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// DiagnosticsConfig configures the read-only diagnostics HTTP API.
type DiagnosticsConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// DurableConfig configures the optional badger-backed directive WAL.
type DurableConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true" yaml:"path"`
}

// TransportConfig configures the reference gRPC directive transport
// adapter, the cloud-side stub's entry point into Processor.OnDirective.
type TransportConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Load reads configuration from file, environment, and defaults. When no
// config file is found it returns DefaultConfig() without consulting
// VASSIST_* environment variables; with a file, an environment variable
// overrides only a key that the file itself sets.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := DefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path in YAML form with restricted permissions.
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("VASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	v.AddConfigPath(defaultConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vassist")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vassist"
	}
	return filepath.Join(home, ".config", "vassist")
}

// DefaultConfigPath is the config file path used when none is given
// explicitly.
func DefaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(DefaultConfigPath())
	return err == nil
}
