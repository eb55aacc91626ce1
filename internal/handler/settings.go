package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
	"github.com/shopspring/decimal"
)

// SettingsServicer is satisfied by *service.SettingsService.
type SettingsServicer interface {
	Get(ctx context.Context, hotelID string) (model.HotelSettings, error)
	Update(ctx context.Context, hotelID string, req service.UpdateSettingsRequest) (model.HotelSettings, error)
}

type SettingsHandler struct {
	svc SettingsServicer
}

func NewSettingsHandler(svc SettingsServicer) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

func (h *SettingsHandler) RegisterWriteRoutes(r chi.Router) {
	r.Put("/", h.Update)
}

type updateSettingsRequest struct {
	Name      *string `json:"name"`
	TaxConfig *struct {
		TaxPercentage           *decimal.Decimal `json:"taxPercentage"`
		ServiceChargePercentage *decimal.Decimal `json:"serviceChargePercentage"`
	} `json:"taxConfig"`
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	settings, err := h.svc.Get(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "get settings", err)
		return
	}
	writeOK(w, http.StatusOK, "Settings fetched", map[string]model.HotelSettings{"settings": settings})
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update settings", err)
		return
	}

	svcReq := service.UpdateSettingsRequest{Name: req.Name}
	if req.TaxConfig != nil {
		svcReq.TaxPercentage = req.TaxConfig.TaxPercentage
		svcReq.ServiceChargePercentage = req.TaxConfig.ServiceChargePercentage
	}
	settings, err := h.svc.Update(r.Context(), claims.HotelID, svcReq)
	if err != nil {
		writeError(w, r, "update settings", err)
		return
	}
	writeOK(w, http.StatusOK, "Settings updated", map[string]model.HotelSettings{"settings": settings})
}
