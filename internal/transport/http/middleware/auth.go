package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"commissions/internal/domain/auth"
)

// Auth attaches the caller's identity when a valid bearer token is present.
// Requests without one pass through anonymously; RequireUser rejects them.
func Auth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
			if err != nil {
				logger.Debug("bearer token rejected",
					zap.String("requestId", GetRequestID(r.Context())),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.User())))
		})
	}
}
