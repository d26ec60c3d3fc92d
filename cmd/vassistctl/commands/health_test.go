package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/voxcore/assistant-sdk/internal/cli/health"
)

func TestRunHealth_RendersStatusAndUptime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		resp := health.Response{Status: "healthy", Timestamp: "2026-07-31T00:00:00Z"}
		resp.Data.Service = "vassist-coordination-core"
		resp.Data.StartedAt = "2026-07-30T22:00:00Z"
		resp.Data.Uptime = "2h0m0s"
		resp.Data.UptimeSec = 7200
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	healthAddr = strings.TrimPrefix(srv.URL, "http://")

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runHealth(cmd, nil))

	out := buf.String()
	require.Contains(t, out, "healthy")
	require.Contains(t, out, "vassist-coordination-core")
	require.Contains(t, out, "2h 0m 0s")
}
