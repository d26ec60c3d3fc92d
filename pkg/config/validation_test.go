package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "oneof")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "xml"
	require.Error(t, Validate(cfg))
}

func TestValidate_InvalidMetricsPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max")
}

func TestValidate_TelemetrySampleRateOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.SampleRate = 1.5
	require.Error(t, Validate(cfg))
}

func TestValidate_DuplicateChannelNameRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels.Virtual = []ChannelConfig{{Name: DialogChannelName, Priority: 999}}

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate channel name")
}

func TestValidate_DuplicateChannelPriorityRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels.Virtual = []ChannelConfig{{Name: "extra", Priority: DialogChannelPriority}}

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate channel priority")
}

func TestValidate_ArchiveEnabledRequiresBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.Enabled = true
	cfg.Archive.Bucket = ""
	require.Error(t, Validate(cfg))
}

func TestValidate_AuditStorePostgresRequiresDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AuditStore.Enabled = true
	cfg.AuditStore.Driver = "postgres"
	cfg.AuditStore.DSN = ""

	err := Validate(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dsn")
}

func TestValidate_LogLevelAcceptsCaseVariants(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"} {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		require.NoError(t, Validate(cfg), "level %q should validate", level)
	}
}
