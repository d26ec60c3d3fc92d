// Command vassistctl is the voice-assistant client SDK's CLI: it
// initializes a config file, runs the coordination core as a foreground
// or daemon process, and inspects a running process's channel/directive
// state over the diagnostics API.
package main

import (
	"fmt"
	"os"

	"github.com/voxcore/assistant-sdk/cmd/vassistctl/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
