package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"commissions/internal/domain/auth"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())
	userCtx := WithUser(context.Background(), auth.UserContext{UserID: "user-1", Role: auth.RoleAdmin})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/commissions/periods/close", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	assert.Equal(t, http.StatusNoContent, firstRec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/commissions/periods/close", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	assert.Equal(t, http.StatusTooManyRequests, secondRec.Code)
	assert.NotEmpty(t, secondRec.Header().Get("Retry-After"))
}

func TestRateLimitFallsBackToForwardedIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.10")
	rec = httptest.NewRecorder()
	limited.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tallies", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, http.StatusNoContent, send())
}

func TestLifecycleRateLimitOnlyCoversLifecycleWrites(t *testing.T) {
	limited := LifecycleRateLimit(2, time.Minute)(noContent())
	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "192.0.2.30:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "/api/v1/commissions/periods/reopen"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPut, "/api/v1/tallies/"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodGet, "/api/v1/commissions/periods/status"))
	assert.Equal(t, http.StatusNoContent, send(http.MethodPost, "/api/v1/unrelated"))
}
