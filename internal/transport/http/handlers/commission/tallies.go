package commissionhandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"commissions/internal/domain/audit"
	"commissions/internal/domain/commission"
	"commissions/internal/transport/http/api"
	"commissions/internal/transport/http/middleware"
	"commissions/internal/transport/http/shared"
)

func (h *Handler) handleUpsertTally(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload commission.TallyInput
	if !shared.DecodeJSON(w, r, &payload, requestID) {
		return
	}

	view, err := h.Service.UpsertTally(r.Context(), actor(r), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionTallyUpsert, audit.EntityTally, view.ID, nil, payload)
	api.Success(w, view, requestID)
}

func (h *Handler) handleListTallies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()

	var period *commission.Period
	if q.Get("month") != "" || q.Get("year") != "" {
		v := shared.NewValidator()
		month := v.Int("month", q.Get("month"))
		year := v.Int("year", q.Get("year"))
		if v.Reject(w, requestID) {
			return
		}
		period = &commission.Period{Month: month, Year: year}
	}

	views, err := h.Service.ListTallies(r.Context(), actor(r), q.Get("employeeId"), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, views, requestID)
}

func (h *Handler) handleEmployeePeriodStatus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	employeeID := strings.TrimSpace(chi.URLParam(r, "employeeID"))
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	if v.Reject(w, requestID) {
		return
	}

	status, err := h.Service.EmployeePeriodStatus(r.Context(), actor(r), employeeID, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, status, requestID)
}

// parsePeriod reads the required month and year query parameters.
func parsePeriod(w http.ResponseWriter, r *http.Request) (commission.Period, bool) {
	v := shared.NewValidator()
	month := v.Int("month", r.URL.Query().Get("month"))
	year := v.Int("year", r.URL.Query().Get("year"))
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return commission.Period{}, false
	}
	return commission.Period{Month: month, Year: year}, true
}
