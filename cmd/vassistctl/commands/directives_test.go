package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRunDirectivesQueue_RendersStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/directives/queue", r.URL.Path)
		_ = json.NewEncoder(w).Encode(processorStats{
			DialogRequestID:      "req-1",
			HandlingQueueDepth:   2,
			CancellingQueueDepth: 1,
			PreHandling:          true,
			InFlight:             false,
		})
	}))
	defer srv.Close()

	directivesAddr = strings.TrimPrefix(srv.URL, "http://")
	directivesToken = ""

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runDirectivesQueue(cmd, nil))

	out := buf.String()
	require.Contains(t, out, "req-1")
	require.Contains(t, out, "2")
	require.Contains(t, out, "true")
}

func TestRunWaitIdle_ReturnsOnceStateReachesIdle(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		state := "THINKING"
		if n >= 3 {
			state = "IDLE"
		}
		_ = json.NewEncoder(w).Encode(dialogStateView{State: state})
	}))
	defer srv.Close()

	directivesAddr = strings.TrimPrefix(srv.URL, "http://")
	directivesToken = ""
	waitIdlePoll = 5 * time.Millisecond
	waitIdleTimeout = time.Second

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, runWaitIdle(cmd, nil))
	require.Contains(t, buf.String(), "IDLE")
	require.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestRunWaitIdle_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dialogStateView{State: "LISTENING"})
	}))
	defer srv.Close()

	directivesAddr = strings.TrimPrefix(srv.URL, "http://")
	directivesToken = ""
	waitIdlePoll = 5 * time.Millisecond
	waitIdleTimeout = 20 * time.Millisecond

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	err := runWaitIdle(cmd, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "timed out")
}
