package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"commissions/internal/transport/http/api"
)

// DecodeJSON reads a single JSON object into dst and writes the failure
// response itself. Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil {
		if dec.More() {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body must contain a single JSON object", requestID)
			return false
		}
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
	case errors.Is(err, io.EOF):
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is required", requestID)
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", requestID)
	}
	return false
}
