package api

import (
	"encoding/json"
	"net/http"

	"github.com/voxcore/assistant-sdk/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("api: encode response failed", "error", err.Error())
	}
}
