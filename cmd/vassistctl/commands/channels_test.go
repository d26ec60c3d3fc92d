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
)

func TestRunChannelsList_RendersFetchedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/channels", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]channelView{
			{Name: "dialog", Priority: 100, Focus: "FOREGROUND", InterfaceName: "SpeechRecognizer"},
			{Name: "alerts", Priority: 200, Focus: "NONE"},
		})
	}))
	defer srv.Close()

	channelsAddr = strings.TrimPrefix(srv.URL, "http://")
	channelsToken = ""

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runChannelsList(cmd, nil))

	out := buf.String()
	require.Contains(t, out, "dialog")
	require.Contains(t, out, "FOREGROUND")
	require.Contains(t, out, "SpeechRecognizer")
	require.Contains(t, out, "alerts")
	require.Contains(t, out, "200")
}

func TestRunChannelsList_PropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	channelsAddr = strings.TrimPrefix(srv.URL, "http://")
	channelsToken = ""

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, runChannelsList(cmd, nil))
}
