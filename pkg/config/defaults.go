package config

import "strings"

const (
	defaultThinkingToIdleMs      = 8000
	defaultShortThinkingToIdleMs = 200
	defaultListeningToIdleMs     = 8000
)

// Default channel priorities, strictly increasing (lower wins
// arbitration). Matches §6's "dialog > alerts > communications > content"
// ordering.
const (
	DialogChannelName         = "dialog"
	AlertsChannelName         = "alerts"
	CommunicationsChannelName = "communications"
	ContentChannelName        = "content"

	DialogChannelPriority         = 100
	AlertsChannelPriority         = 200
	CommunicationsChannelPriority = 300
	ContentChannelPriority        = 400
)

// DefaultChannels returns the default physical channel ladder: dialog(100)
// > alerts(200) > communications(300) > content(400). Callers needing
// additional channels can insert between these priority numbers.
func DefaultChannels() []ChannelConfig {
	return []ChannelConfig{
		{Name: DialogChannelName, Priority: DialogChannelPriority},
		{Name: AlertsChannelName, Priority: AlertsChannelPriority},
		{Name: CommunicationsChannelName, Priority: CommunicationsChannelPriority},
		{Name: ContentChannelName, Priority: ContentChannelPriority},
	}
}

// DefaultConfig returns a Config populated entirely with default values,
// used when no config file is found.
func DefaultConfig() *Config {
	cfg := &Config{
		Channels: ChannelsConfig{Physical: DefaultChannels()},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unspecified fields of cfg with documented defaults.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyTimersDefaults(&cfg.Timers)
	applyAuditStoreDefaults(&cfg.AuditStore)
	applyDiagnosticsDefaults(&cfg.Diagnostics)
	applyMetricsDefaults(&cfg.Metrics)
	applyTransportDefaults(&cfg.Transport)

	if len(cfg.Channels.Physical) == 0 && len(cfg.Channels.Virtual) == 0 {
		cfg.Channels.Physical = DefaultChannels()
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

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyTimersDefaults(cfg *TimersConfig) {
	if cfg.ThinkingToIdleMs == 0 {
		cfg.ThinkingToIdleMs = defaultThinkingToIdleMs
	}
	if cfg.ShortThinkingToIdleMs == 0 {
		cfg.ShortThinkingToIdleMs = defaultShortThinkingToIdleMs
	}
	if cfg.ListeningToIdleMs == 0 {
		cfg.ListeningToIdleMs = defaultListeningToIdleMs
	}
}

func applyAuditStoreDefaults(cfg *AuditStoreConfig) {
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.DSN == "" && cfg.Driver == "sqlite" {
		cfg.DSN = "vassist-audit.db"
	}
}

func applyDiagnosticsDefaults(cfg *DiagnosticsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8733"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyTransportDefaults(cfg *TransportConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":8733"
	}
}
