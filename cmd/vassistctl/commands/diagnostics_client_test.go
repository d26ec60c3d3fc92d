package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchDiagnostics_DecodesJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/channels", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]channelView{{Name: "dialog", Priority: 100, Focus: "FOREGROUND"}})
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")

	var views []channelView
	require.NoError(t, fetchDiagnostics(addr, "/api/v1/channels", "", &views))
	require.Len(t, views, 1)
	require.Equal(t, "dialog", views[0].Name)
}

func TestFetchDiagnostics_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")

	var v map[string]string
	require.NoError(t, fetchDiagnostics(addr, "/", "test-token", &v))
}

func TestFetchDiagnostics_NonOKStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")

	var v map[string]string
	err := fetchDiagnostics(addr, "/", "", &v)
	require.Error(t, err)
}
