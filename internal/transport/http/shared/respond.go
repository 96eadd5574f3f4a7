// Package shared holds the JSON respond helpers every handler uses, so all
// error envelopes stay one shape: {"error": "<message>"}.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "schoolhub/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a coded error to its status and caller-safe message.
// Uncoded errors fall through to a generic 500; their detail belongs in the
// operator log, not the response.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error": dErrors.MessageOf(err),
	})
}
