package audithandler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/auth"
	"commissions/internal/transport/http/api"
	"commissions/internal/transport/http/middleware"
	"commissions/internal/transport/http/shared"
)

const exportLimit = 10000

type Handler struct {
	Service audit.Recorder
	Logger  *zap.Logger
}

func NewHandler(service audit.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/", h.handleListEvents)
		r.Get("/export", h.handleExportEvents)
	})
}

func filterFrom(w http.ResponseWriter, r *http.Request) (audit.Filter, bool) {
	q := r.URL.Query()
	v := shared.NewValidator()
	v.Enum("action", q.Get("action"), audit.Actions, "unknown action")
	v.Enum("entityType", q.Get("entityType"), audit.EntityTypes, "unknown entity type")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return audit.Filter{}, false
	}
	return audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		ActorUser:  q.Get("actorUserId"),
	}, true
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	v := shared.NewValidator()
	page := v.Page(r.URL.Query(), 100, 500)
	if v.Reject(w, requestID) {
		return
	}
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	filter, ok := filterFrom(w, r)
	if !ok {
		return
	}

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		h.Logger.Warn("audit count failed", zap.Error(err))
	}
	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		h.Logger.Error("audit list failed", zap.String("requestId", requestID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, requestID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFrom(w, r)
	if !ok {
		return
	}
	events, err := h.Service.List(r.Context(), filter, false, exportLimit, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "actor_user_id", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		h.Logger.Warn("audit export header failed", zap.Error(err))
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			h.Logger.Warn("audit export row failed", zap.Error(err))
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.Logger.Warn("audit export flush failed", zap.Error(err))
	}
}
