package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxcore/assistant-sdk/internal/cli/output"
)

var (
	directivesAddr  string
	directivesToken string
	waitIdlePoll    time.Duration
	waitIdleTimeout time.Duration
)

var directivesCmd = &cobra.Command{
	Use:   "directives",
	Short: "Inspect the Directive Processor's queue state",
}

var directivesQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show the current handling/cancelling queue depths",
	RunE:  runDirectivesQueue,
}

// waitIdleCmd polls the diagnostics API's dialog-state snapshot until it
// observes IDLE. A process embedding this SDK directly can get the same
// notification in-process, without polling, via
// dialogux.Aggregator.OnceObserver(dialogux.UXIdle, fn) instead.
var waitIdleCmd = &cobra.Command{
	Use:   "wait-idle",
	Short: "Block until the dialog UX state reaches IDLE",
	RunE:  runWaitIdle,
}

func init() {
	directivesCmd.PersistentFlags().StringVar(&directivesAddr, "addr", "127.0.0.1:8733", "diagnostics API address")
	directivesCmd.PersistentFlags().StringVar(&directivesToken, "token", "", "diagnostics API bearer token")
	directivesCmd.AddCommand(directivesQueueCmd)
	directivesCmd.AddCommand(waitIdleCmd)

	waitIdleCmd.Flags().DurationVar(&waitIdlePoll, "poll", 200*time.Millisecond, "polling interval")
	waitIdleCmd.Flags().DurationVar(&waitIdleTimeout, "timeout", 30*time.Second, "maximum time to wait")
}

// processorStats mirrors internal/directive.Stats's JSON shape.
type processorStats struct {
	DialogRequestID      string `json:"DialogRequestID"`
	HandlingQueueDepth   int    `json:"HandlingQueueDepth"`
	CancellingQueueDepth int    `json:"CancellingQueueDepth"`
	PreHandling          bool   `json:"PreHandling"`
	InFlight             bool   `json:"InFlight"`
}

type dialogStateView struct {
	State string `json:"state"`
}

func runDirectivesQueue(cmd *cobra.Command, args []string) error {
	var stats processorStats
	if err := fetchDiagnostics(directivesAddr, "/api/v1/directives/queue", directivesToken, &stats); err != nil {
		return err
	}

	return output.SimpleTable(cmd.OutOrStdout(), [][2]string{
		{"Dialog request ID", stats.DialogRequestID},
		{"Handling queue depth", fmt.Sprintf("%d", stats.HandlingQueueDepth)},
		{"Cancelling queue depth", fmt.Sprintf("%d", stats.CancellingQueueDepth)},
		{"Pre-handling", fmt.Sprintf("%t", stats.PreHandling)},
		{"In flight", fmt.Sprintf("%t", stats.InFlight)},
	})
}

func runWaitIdle(cmd *cobra.Command, args []string) error {
	deadline := time.Now().Add(waitIdleTimeout)
	ticker := time.NewTicker(waitIdlePoll)
	defer ticker.Stop()

	for {
		var state dialogStateView
		if err := fetchDiagnostics(directivesAddr, "/api/v1/dialog/state", directivesToken, &state); err == nil {
			if state.State == "IDLE" {
				cmd.Println("dialog UX state is IDLE")
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s waiting for IDLE", waitIdleTimeout)
		}
		<-ticker.C
	}
}
