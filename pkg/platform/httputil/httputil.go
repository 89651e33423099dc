// Package httputil implements the JSON response conventions shared by all
// handlers: one envelope for errors, statuses derived from domain codes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "livre/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the error envelope. Internal
// and crypto failures keep their detail server-side; the client sees only
// the code.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}

	switch code {
	case dErrors.CodeInternal, dErrors.CodeCryptoFailure:
		// detail stays in the logs
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message
		}
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeJSON decodes the request body into T, rejecting unknown fields. On
// failure it writes a bad_request envelope and reports false.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var payload T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed JSON body"))
		var zero T
		return zero, false
	}
	return payload, true
}
