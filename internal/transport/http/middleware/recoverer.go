package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"commissions/internal/platform/observability"
	"commissions/internal/transport/http/api"
)

// Recoverer turns a handler panic into a 500 envelope and reports it.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				requestID := GetRequestID(r.Context())
				logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.String("requestId", requestID),
					zap.ByteString("stack", debug.Stack()),
				)
				observability.CapturePanic(r, requestID, rec)
				api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
