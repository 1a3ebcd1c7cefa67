// Package respond writes JSON responses and keeps internal error detail out of them.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// ErrorBody is the envelope of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Error writes err's message verbatim. Use it only for messages built by the handler.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, ErrorBody{Error: err.Error()})
}

// safePhrases mark messages written for API clients: validation and lookup failures.
var safePhrases = []string{
	"validation error",
	"required",
	"invalid",
	"not found",
	"already exists",
	"must be",
	"cannot be",
	"in the future",
	"too long",
	"too short",
}

// SafeError writes err's message for 4xx client errors that read like
// validation or lookup failures. Anything else, and every 5xx, is logged with
// secrets masked and answered with a generic message.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	safe := false
	if code < 500 {
		lower := strings.ToLower(msg)
		for _, p := range safePhrases {
			if strings.Contains(lower, p) {
				safe = true
				break
			}
		}
	}

	if safe {
		JSON(w, code, ErrorBody{Error: msg})
		return
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	if code >= 500 {
		JSON(w, code, ErrorBody{Error: "internal server error"})
		return
	}
	JSON(w, code, ErrorBody{Error: strings.ToLower(http.StatusText(code))})
}
