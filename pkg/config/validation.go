package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against its struct tags and a handful of
// cross-field rules the tag language can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := validateChannels(cfg.Channels); err != nil {
		return err
	}

	if cfg.AuditStore.Enabled && cfg.AuditStore.Driver == "postgres" && cfg.AuditStore.DSN == "" {
		return fmt.Errorf("audit_store.dsn is required when driver is postgres")
	}

	return nil
}

// validateChannels enforces §4.3's "names and priorities must be globally
// unique" rule at config-load time, ahead of focus.NewManager's own
// duplicate-drop fallback, so misconfiguration surfaces immediately
// rather than as a logged warning at runtime.
func validateChannels(cfg ChannelsConfig) error {
	names := make(map[string]bool)
	priorities := make(map[uint32]bool)

	for _, list := range [][]ChannelConfig{cfg.Physical, cfg.Virtual} {
		for _, ch := range list {
			if names[ch.Name] {
				return fmt.Errorf("duplicate channel name %q", ch.Name)
			}
			if priorities[ch.Priority] {
				return fmt.Errorf("duplicate channel priority %d (channel %q)", ch.Priority, ch.Name)
			}
			names[ch.Name] = true
			priorities[ch.Priority] = true
		}
	}
	return nil
}
