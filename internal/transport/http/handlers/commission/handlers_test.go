package commissionhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/auth"
	"commissions/internal/domain/commission"
	"commissions/internal/domain/reports"
	"commissions/internal/platform/metrics"
	"commissions/internal/transport/http/middleware"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

type fixture struct {
	router http.Handler
	audit  *audit.Memory
	store  *commission.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := commission.NewMemoryStore()
	require.NoError(t, store.SaveSector(ctx, commission.Sector{ID: "support-a", Name: "Support A"}))
	require.NoError(t, store.SaveSector(ctx, commission.Sector{ID: "support-b", Name: "Support B"}))

	employees := []struct {
		e commission.Employee
		c commission.Counts
	}{
		{commission.Employee{ID: "ana", Name: "Ana", SectorID: "support-a", Shift: "morning", Active: true}, commission.Counts{Count5: 10}},
		{commission.Employee{ID: "bruno", Name: "Bruno", SectorID: "support-a", Shift: "night", Active: true}, commission.Counts{Count5: 5, Count4: 3}},
		{commission.Employee{ID: "carla", Name: "Carla", SectorID: "support-a", Shift: "morning", Active: true}, commission.Counts{Count5: 6, Count4: 2, Count3: 1}},
		{commission.Employee{ID: "diego", Name: "Diego", SectorID: "support-b", Shift: "morning", Active: true}, commission.Counts{Count5: 4, Count4: 4, Count3: 2, Count2: 1}},
	}
	period := commission.Period{Month: 3, Year: 2024}
	for _, emp := range employees {
		require.NoError(t, store.SaveEmployee(ctx, emp.e))
	}
	require.NoError(t, store.WithinTx(ctx, func(tx commission.Tx) error {
		for _, emp := range employees {
			if _, err := tx.UpsertTally(ctx, emp.e.ID, period, emp.c); err != nil {
				return err
			}
		}
		return nil
	}))

	recorder := audit.NewMemory()
	handler := NewHandler(commission.NewService(store, nil), reports.NewService("pt-BR"), recorder, metrics.New(), nil)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(testSecret, nil))
	router.Route("/api/v1", handler.RegisterRoutes)
	return &fixture{router: router, audit: recorder, store: store}
}

func token(t *testing.T, role, groupID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: "user-" + role, Role: role, GroupID: groupID}, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestCloseAllGroupsAsAdmin(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")

	rec, env := f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", admin, map[string]int{"month": 3, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result commission.CloseResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, commission.CloseResult{Period: "2024-03", Approved: 3, Rejected: 1}, result)
	assert.NotEmpty(t, env.RequestID)

	rec, env = f.do(t, http.MethodGet, "/api/v1/commissions/periods/status?month=3&year=2024", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status commission.PeriodStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.IsClosed)
	assert.Equal(t, commission.PeriodStats{Total: 4, Approved: 3, Rejected: 1}, status.Stats)

	events, err := f.audit.List(context.Background(), audit.Filter{Action: audit.ActionPeriodClose}, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2024-03", events[0].EntityID)
}

func TestSupervisorScope(t *testing.T) {
	f := newFixture(t)
	supervisor := token(t, auth.RoleSupervisor, "support-a")

	rec, env := f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", supervisor, map[string]any{"month": 3, "year": 2024, "groupId": "support-b"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", env.Error.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", supervisor, map[string]any{"month": 3, "year": 2024})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", supervisor, map[string]any{"month": 3, "year": 2024, "groupId": "support-a"})
	require.Equal(t, http.StatusOK, rec.Code)
	var result commission.CloseResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Approved)
	assert.Equal(t, 1, result.Rejected)

	rec, env = f.do(t, http.MethodGet, "/api/v1/commissions/periods/status?month=3&year=2024", supervisor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status commission.PeriodStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.IsClosed)
	assert.Equal(t, 3, status.Stats.Total)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/commissions/periods/reopen", supervisor, map[string]any{"month": 3, "year": 2024, "groupId": "support-a"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReopenRestoresOpenRegime(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")

	rec, _ := f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", admin, map[string]int{"month": 3, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/v1/commissions/periods/reopen", admin, map[string]int{"month": 3, "year": 2024})
	require.Equal(t, http.StatusOK, rec.Code)
	var result commission.ReopenResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "2024-03", result.Period)

	rec, env = f.do(t, http.MethodGet, "/api/v1/commissions/periods/status?month=3&year=2024", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status commission.PeriodStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.IsClosed)
	assert.Equal(t, 4, status.Stats.Pending)
}

func TestLifecycleErrors(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")

	rec, env := f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", admin, map[string]int{"month": 4, "year": 2024})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_metrics", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", admin, map[string]int{"month": 13, "year": 2024})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "month")

	rec, env = f.do(t, http.MethodGet, "/api/v1/commissions/periods/status?month=x&year=2024", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", env.Error.Code)

	rec, env = f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", "", map[string]int{"month": 3, "year": 2024})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)
}

func TestTallyWritesRespectClosedPeriods(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")
	supervisorB := token(t, auth.RoleSupervisor, "support-b")

	update := map[string]any{"employeeId": "bruno", "month": 3, "year": 2024, "count5": 6, "count4": 3}
	rec, env := f.do(t, http.MethodPut, "/api/v1/tallies", admin, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view commission.TallyView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 9, view.Volume)
	assert.Equal(t, "Support A", view.GroupName)

	rec, _ = f.do(t, http.MethodPut, "/api/v1/tallies", supervisorB, update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/v1/tallies", admin, map[string]any{"employeeId": "bruno", "month": 3, "year": 2024, "count5": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/commissions/periods/close", admin, map[string]any{"month": 3, "year": 2024, "groupId": "support-a"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do(t, http.MethodPut, "/api/v1/tallies", admin, update)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "period_closed", env.Error.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/v1/tallies", admin, map[string]any{"employeeId": "diego", "month": 3, "year": 2024, "count5": 12})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodPut, "/api/v1/tallies", admin, map[string]any{"employeeId": "ghost", "month": 3, "year": 2024})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTalliesAndEmployeeStatus(t *testing.T) {
	f := newFixture(t)
	supervisor := token(t, auth.RoleSupervisor, "support-b")

	rec, env := f.do(t, http.MethodGet, "/api/v1/tallies?month=3&year=2024", supervisor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var views []commission.TallyView
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Diego", views[0].EmployeeName)
	assert.Equal(t, 80, views[0].Percentage)

	rec, env = f.do(t, http.MethodGet, "/api/v1/employees/diego/period-status?month=3&year=2024", supervisor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status commission.EmployeePeriodStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.IsClosed)
	assert.Equal(t, "Support B", status.GroupName)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/employees/ana/period-status?month=3&year=2024", supervisor, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCommissionListAndExports(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")

	rec, env := f.do(t, http.MethodGet, "/api/v1/commissions?month=3&year=2024&groupId=support-a", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list commission.CommissionList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Lines, 3)
	assert.Equal(t, "Ana", list.Lines[0].EmployeeName)
	assert.Equal(t, commission.StatusPending, list.Lines[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(list.Lines[0].Bonus))
	assert.Equal(t, commission.StatusRejected, list.Lines[1].Status)
	assert.Equal(t, 0, list.Summary.ApprovedCount)
	assert.True(t, list.Summary.TotalToPay.IsZero())

	rec, _ = f.do(t, http.MethodGet, "/api/v1/commissions?month=3&year=2024&status=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/commissions/export.xlsx?month=3&year=2024", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, reports.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "commissions-2024-03.xlsx")

	rec, _ = f.do(t, http.MethodGet, "/api/v1/commissions/export.pdf?month=3&year=2024", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestDashboardAndGroups(t *testing.T) {
	f := newFixture(t)
	admin := token(t, auth.RoleAdmin, "")

	rec, env := f.do(t, http.MethodGet, "/api/v1/dashboard?month=3&year=2024", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var board commission.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &board))
	assert.Equal(t, 4, board.Employees)
	assert.Equal(t, 4, board.EligibleCount)
	assert.Equal(t, 3, board.HighPerformers)
	require.Len(t, board.Groups, 2)
	assert.Equal(t, 9, board.Groups[0].Baseline)

	rec, env = f.do(t, http.MethodGet, "/api/v1/groups?month=3&year=2024", token(t, auth.RoleSupervisor, "support-b"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []commission.GroupOverview
	require.NoError(t, json.Unmarshal(env.Data, &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "support-b", groups[0].Key)
}
