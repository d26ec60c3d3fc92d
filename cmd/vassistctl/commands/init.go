package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxcore/assistant-sdk/internal/cli/prompt"
	"github.com/voxcore/assistant-sdk/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample vassistctl configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/vassist/config.yaml. Use --config to specify a custom
path, or --interactive to walk through the channel topology and
diagnostics/audit settings with prompts.

Examples:
  # Initialize with default location
  vassistctl init

  # Initialize interactively
  vassistctl init --interactive

  # Force overwrite an existing config file
  vassistctl init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
	initCmd.Flags().BoolVar(&initInteractive, "interactive", false, "Walk through setup with interactive prompts")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			overwrite, promptErr := prompt.Confirm(fmt.Sprintf("%s already exists, overwrite", configPath), false)
			if promptErr != nil || !overwrite {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
			}
		}
	}

	cfg := config.DefaultConfig()

	if initInteractive {
		if err := runInitWizard(cfg); err != nil {
			return fmt.Errorf("interactive setup: %w", err)
		}
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", configPath)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Edit the configuration file to customize channel topology and timers")
	cmd.Println("  2. Start the coordination core with: vassistctl serve")
	cmd.Printf("  3. Or specify a custom config: vassistctl serve --config %s\n", configPath)
	return nil
}

// runInitWizard walks the operator through the settings a generated
// config can't safely default on its own: whether the diagnostics API
// and audit store should be enabled, and what their endpoints are.
func runInitWizard(cfg *config.Config) error {
	diagEnabled, err := prompt.Confirm("Enable the read-only diagnostics HTTP API", true)
	if err != nil {
		return err
	}
	cfg.Diagnostics.Enabled = diagEnabled

	if diagEnabled {
		port, err := prompt.InputPort("Diagnostics API port", 8733)
		if err != nil {
			return err
		}
		cfg.Diagnostics.Addr = fmt.Sprintf("127.0.0.1:%d", port)

		secret, err := prompt.InputOptional("JWT bearer secret (blank disables auth)")
		if err != nil {
			return err
		}
		cfg.Diagnostics.JWTSecret = secret
	}

	auditEnabled, err := prompt.Confirm("Enable the UX/focus audit log", false)
	if err != nil {
		return err
	}
	cfg.AuditStore.Enabled = auditEnabled

	if auditEnabled {
		driver, err := prompt.SelectString("Audit store driver", []string{"sqlite", "postgres"})
		if err != nil {
			return err
		}
		cfg.AuditStore.Driver = driver

		dsn, err := prompt.InputRequired("Audit store DSN (file path for sqlite, connection string for postgres)")
		if err != nil {
			return err
		}
		cfg.AuditStore.DSN = dsn
	}

	return nil
}
