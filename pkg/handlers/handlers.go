// Package handlers provides the uniform JSON response envelope and the fixed
// error taxonomy shared by every API endpoint.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the failure payload of an Envelope.
type ErrorBody struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RespondJSON writes data inside a success envelope with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// RespondError writes err inside a failure envelope, resolving it through
// Resolve. Server-side failures are logged at error level, client failures
// at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	e := Resolve(err)

	if e.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", e.Code, "status", e.Status, "error", err)
	} else {
		logger.Warn("request rejected", "code", e.Code, "status", e.Status, "error", err)
	}

	write(w, e.Status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    e.Code,
			Message: e.Message,
			Details: e.Details,
		},
	})
}

// DecodeJSON decodes the request body into v. A malformed body is reported
// as INTERNAL_ERROR.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return Internal("malformed request body", err)
	}
	return nil
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
