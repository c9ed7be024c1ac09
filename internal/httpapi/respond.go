package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vschac/CSDaily/internal/domain"
)

// errorBody is the wire shape for failures: { error, details?, code?, status? }.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorBody{Error: msg, Details: details, Status: status})
}

// statusFor maps the error taxonomy to HTTP statuses: bad input is the
// user's to correct, authorization failures end the action, everything else
// is a server-side failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
