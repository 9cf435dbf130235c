package commissionhandler

import (
	"net/http"
	"strings"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/commission"
	"commissions/internal/transport/http/api"
	"commissions/internal/transport/http/middleware"
	"commissions/internal/transport/http/shared"
)

func (h *Handler) handleClosePeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload commission.PeriodRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Close(r.Context(), actor(r), payload)
	h.observe("close", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.ObserveCloseOutcomes(result.Approved, result.Rejected)
	}
	h.record(r, audit.ActionPeriodClose, audit.EntityPeriod, periodEntity(result.Period, payload.GroupID), payload, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleReopenPeriod(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload commission.PeriodRequest
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Reopen(r.Context(), actor(r), payload)
	h.observe("reopen", err)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionPeriodReopen, audit.EntityPeriod, periodEntity(result.Period, payload.GroupID), payload, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handlePeriodStatus(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	status, err := h.Service.Status(r.Context(), actor(r), commission.PeriodRequest{
		Month:   period.Month,
		Year:    period.Year,
		GroupID: r.URL.Query().Get("groupId"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, status, middleware.GetRequestID(r.Context()))
}

// periodEntity names the audited scope, e.g. "2024-03" or "2024-03/support-a".
func periodEntity(period, groupID string) string {
	if groupID = strings.TrimSpace(groupID); groupID != "" {
		return period + "/" + groupID
	}
	return period
}
