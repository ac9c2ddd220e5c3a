// Package shared holds the JSON response helpers every handler uses so the
// wire envelopes stay uniform.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "inkregister/pkg/domain-errors"
)

// WriteJSON writes any payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError translates a domain error into the {"error": message} envelope
// with the status mapped from its code.
func WriteError(w http.ResponseWriter, err error) {
	status := dErrors.ToHTTPStatus(dErrors.CodeOf(err))
	WriteJSON(w, status, map[string]string{
		"error": dErrors.MessageOf(err),
	})
}
