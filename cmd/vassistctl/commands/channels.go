package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voxcore/assistant-sdk/internal/cli/output"
)

var (
	channelsAddr  string
	channelsToken string
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect the Focus Manager's channel topology",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List channels and their current focus state",
	RunE:  runChannelsList,
}

func init() {
	channelsCmd.PersistentFlags().StringVar(&channelsAddr, "addr", "127.0.0.1:8733", "diagnostics API address")
	channelsCmd.PersistentFlags().StringVar(&channelsToken, "token", "", "diagnostics API bearer token")
	channelsCmd.AddCommand(channelsListCmd)
}

// channelView mirrors internal/api.channelView's JSON shape; it's
// re-declared here rather than imported since the api package keeps its
// wire-shape types unexported.
type channelView struct {
	Name          string `json:"name"`
	Priority      uint32 `json:"priority"`
	Focus         string `json:"focus"`
	InterfaceName string `json:"interfaceName,omitempty"`
	ContentType   string `json:"contentType,omitempty"`
}

func runChannelsList(cmd *cobra.Command, args []string) error {
	var views []channelView
	if err := fetchDiagnostics(channelsAddr, "/api/v1/channels", channelsToken, &views); err != nil {
		return err
	}

	table := output.NewTableData("NAME", "PRIORITY", "FOCUS", "INTERFACE", "CONTENT TYPE")
	for _, v := range views {
		table.AddRow(v.Name, strconv.FormatUint(uint64(v.Priority), 10), v.Focus, v.InterfaceName, v.ContentType)
	}
	return output.PrintTable(cmd.OutOrStdout(), table)
}
