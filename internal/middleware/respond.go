package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorEnvelope mirrors the handler package's failure envelope. It is
// duplicated here because handler depends on middleware.
type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Message: message, Code: code}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
