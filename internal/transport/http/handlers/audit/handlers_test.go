package audithandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/auth"
	"commissions/internal/transport/http/middleware"
)

func newRouter(t *testing.T) (http.Handler, *audit.Memory) {
	t.Helper()
	recorder := audit.NewMemory()
	ctx := context.Background()
	require.NoError(t, recorder.Record(ctx, "admin-1", audit.ActionPeriodClose, audit.EntityPeriod, "2024-03", "req-1", "10.0.0.1", nil, map[string]int{"approved": 1}))
	require.NoError(t, recorder.Record(ctx, "sup-1", audit.ActionTallyUpsert, audit.EntityTally, "t-1", "req-2", "10.0.0.2", nil, nil))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	NewHandler(recorder, nil).RegisterRoutes(router)
	return router, recorder
}

func as(req *http.Request, role string) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u", Role: role}))
}

func TestListEventsRequiresAdmin(t *testing.T) {
	router, _ := newRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/audit/", nil), auth.RoleSupervisor))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/audit/?entityType=rating_tally", nil), auth.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data []audit.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, audit.ActionTallyUpsert, body.Data[0].Action)
}

func TestExportEventsWritesCSV(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/audit/export", nil), auth.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id,actor_user_id"))
}

func TestListEventsRejectsUnknownFilters(t *testing.T) {
	router, _ := newRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, as(httptest.NewRequest(http.MethodGet, "/audit/?action=payroll.run", nil), auth.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation_error")
}
