package commissionhandler

import (
	"net/http"

	"commissions/internal/domain/commission"
	"commissions/internal/domain/reports"
	"commissions/internal/transport/http/api"
	"commissions/internal/transport/http/middleware"
)

func (h *Handler) listFromQuery(w http.ResponseWriter, r *http.Request) (commission.CommissionList, bool) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return commission.CommissionList{}, false
	}
	q := r.URL.Query()
	list, err := h.Service.Commissions(r.Context(), actor(r), commission.ListFilter{
		Period:  period,
		GroupID: q.Get("groupId"),
		Shift:   q.Get("shift"),
		Status:  q.Get("status"),
		Search:  q.Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return commission.CommissionList{}, false
	}
	return list, true
}

func (h *Handler) handleListCommissions(w http.ResponseWriter, r *http.Request) {
	list, ok := h.listFromQuery(w, r)
	if !ok {
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	list, ok := h.listFromQuery(w, r)
	if !ok {
		return
	}
	body, err := h.Reports.Excel(list)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Attachment(w, reports.ContentTypeXLSX, reports.Filename(list, "xlsx"), body)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	list, ok := h.listFromQuery(w, r)
	if !ok {
		return
	}
	body, err := h.Reports.PDF(list)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Attachment(w, reports.ContentTypePDF, reports.Filename(list, "pdf"), body)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	board, err := h.Service.Dashboard(r.Context(), actor(r), period, r.URL.Query().Get("groupId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, board, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGroups(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	groups, err := h.Service.Groups(r.Context(), actor(r), period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, groups, middleware.GetRequestID(r.Context()))
}
