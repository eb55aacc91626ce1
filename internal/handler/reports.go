package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/service"
)

// ReportServicer is satisfied by *service.ReportService.
type ReportServicer interface {
	Summary(ctx context.Context, hotelID string, from, to *time.Time) (*service.SalesSummary, error)
	Drift(ctx context.Context, hotelID string) ([]service.Drift, error)
}

type ReportsHandler struct {
	svc ReportServicer
}

func NewReportsHandler(svc ReportServicer) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// RegisterRoutes is mounted at /reports, admin only.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.Summary)
	r.Get("/drift", h.Drift)
}

// Summary handles GET /reports/summary?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, r, "sales summary", err)
		return
	}

	summary, err := h.svc.Summary(r.Context(), claims.HotelID, from, to)
	if err != nil {
		writeError(w, r, "sales summary", err)
		return
	}
	writeOK(w, http.StatusOK, "Summary fetched", map[string]*service.SalesSummary{"summary": summary})
}

// Drift handles GET /reports/drift: orders whose payment copy disagrees
// with their bill, orphan bills and unbilled orders.
func (h *ReportsHandler) Drift(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	drift, err := h.svc.Drift(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "drift report", err)
		return
	}
	if drift == nil {
		drift = []service.Drift{}
	}
	writeOK(w, http.StatusOK, "Drift report fetched", map[string]any{"drift": drift, "count": len(drift)})
}

// --- Helpers ---

// parseDateRange parses the from and to query params as UTC dates. Missing
// bounds stay open; to is inclusive, so the returned bound is the next midnight.
func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	const layout = "2006-01-02"

	var from, to *time.Time
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, nil, apperr.Validation("invalid from date %q, want YYYY-MM-DD", s)
		}
		from = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, nil, apperr.Validation("invalid to date %q, want YYYY-MM-DD", s)
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}

	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, apperr.Validation("from must not be after to")
	}
	return from, to, nil
}
