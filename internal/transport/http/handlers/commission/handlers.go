package commissionhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/commission"
	"commissions/internal/domain/reports"
	"commissions/internal/platform/metrics"
	"commissions/internal/platform/observability"
	"commissions/internal/transport/http/api"
	"commissions/internal/transport/http/middleware"
	"commissions/internal/transport/http/shared"
)

type Handler struct {
	Service *commission.Service
	Reports *reports.Service
	Audit   audit.Recorder
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

func NewHandler(service *commission.Service, reportsSvc *reports.Service, auditSvc audit.Recorder, collector *metrics.Collector, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Reports: reportsSvc, Audit: auditSvc, Metrics: collector, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", h.handleListCommissions)
			r.Get("/export.xlsx", h.handleExportExcel)
			r.Get("/export.pdf", h.handleExportPDF)
			r.Post("/periods/close", h.handleClosePeriod)
			r.Post("/periods/reopen", h.handleReopenPeriod)
			r.Get("/periods/status", h.handlePeriodStatus)
		})
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/groups", h.handleGroups)
		r.Put("/tallies", h.handleUpsertTally)
		r.Get("/tallies", h.handleListTallies)
		r.Get("/employees/{employeeID}/period-status", h.handleEmployeePeriodStatus)
	})
}

// actor builds the acting context passed into every lifecycle call.
func actor(r *http.Request) commission.ActingContext {
	user, _ := middleware.GetUser(r.Context())
	return commission.ActingContext{UserID: user.UserID, Role: user.Role, GroupID: user.GroupID}
}

// errorCode classifies err into the response status and envelope code.
func errorCode(err error) (int, string) {
	var verr *commission.ValidationError
	var aerr *commission.AuthorizationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &aerr), errors.Is(err, commission.ErrUnauthorized):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, commission.ErrNoMetrics):
		return http.StatusNotFound, "no_metrics"
	case errors.Is(err, commission.ErrEmployeeNotFound):
		return http.StatusNotFound, "employee_not_found"
	case errors.Is(err, commission.ErrPeriodClosed):
		return http.StatusConflict, "period_closed"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	status, code := errorCode(err)

	var verr *commission.ValidationError
	if errors.As(err, &verr) {
		issues := make([]shared.ValidationIssue, 0, len(verr.Issues))
		for _, issue := range verr.Issues {
			issues = append(issues, shared.ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		shared.FailValidation(w, requestID, issues)
		return
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("commission request failed",
			zap.String("path", r.URL.Path),
			zap.String("requestId", requestID),
			zap.Error(err),
		)
		observability.CaptureRequestErr(r, requestID, err)
		api.Fail(w, status, code, "internal server error", requestID)
		return
	}
	api.Fail(w, status, code, err.Error(), requestID)
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())
	if err := h.Audit.Record(r.Context(), user.UserID, action, entityType, entityID, requestID, middleware.ClientIP(r), before, after); err != nil {
		h.Logger.Warn("audit record failed", zap.String("action", action), zap.String("requestId", requestID), zap.Error(err))
	}
}

func (h *Handler) observe(operation string, err error) {
	if h.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		_, result = errorCode(err)
	}
	h.Metrics.ObserveLifecycle(operation, result)
}
