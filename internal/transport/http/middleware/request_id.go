package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// RequestID propagates X-Request-ID, minting a UUID when the caller sent
// none or an oversized one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), reqID)))
	})
}
