package commands

import (
	"github.com/spf13/cobra"

	"github.com/voxcore/assistant-sdk/internal/cli/health"
	"github.com/voxcore/assistant-sdk/internal/cli/output"
	"github.com/voxcore/assistant-sdk/internal/cli/timeutil"
)

var healthAddr string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the coordination core's liveness and uptime",
	RunE:  runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthAddr, "addr", "127.0.0.1:8733", "diagnostics API address")
}

func runHealth(cmd *cobra.Command, args []string) error {
	var resp health.Response
	if err := fetchDiagnostics(healthAddr, "/health", "", &resp); err != nil {
		return err
	}

	return output.SimpleTable(cmd.OutOrStdout(), [][2]string{
		{"Status", resp.Status},
		{"Service", resp.Data.Service},
		{"Started at", timeutil.FormatTime(resp.Data.StartedAt)},
		{"Uptime", timeutil.FormatUptime(resp.Data.Uptime)},
	})
}
