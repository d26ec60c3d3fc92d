package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchDiagnostics issues an authenticated GET against the local
// diagnostics API and decodes the JSON body into v. addr is a bare
// "host:port" diagnostics listen address (the same value that goes in
// Config.Diagnostics.Addr); token is the bearer token, empty if the
// diagnostics API has no JWT secret configured.
func fetchDiagnostics(addr, path, token string, v interface{}) error {
	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", addr, path), nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("diagnostics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("diagnostics request to %s returned %s: %s", path, resp.Status, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
