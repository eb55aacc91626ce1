package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
	"github.com/shopspring/decimal"
)

// MenuServicer is satisfied by *service.MenuService.
type MenuServicer interface {
	List(ctx context.Context, hotelID string) ([]model.MenuItem, error)
	Create(ctx context.Context, hotelID string, req service.CreateMenuItemRequest) (model.MenuItem, error)
	Update(ctx context.Context, hotelID, menuItemID string, req service.UpdateMenuItemRequest) (model.MenuItem, error)
	Delete(ctx context.Context, hotelID, menuItemID string) (model.MenuItem, error)
}

type MenuHandler struct {
	svc MenuServicer
}

func NewMenuHandler(svc MenuServicer) *MenuHandler {
	return &MenuHandler{svc: svc}
}

func (h *MenuHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
}

func (h *MenuHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{menuItemId}", h.Update)
	r.Delete("/{menuItemId}", h.Delete)
}

type createMenuItemRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"isAvailable"`
}

type updateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"isAvailable"`
}

func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "list menu", err)
		return
	}
	writeOK(w, http.StatusOK, "Menu fetched", map[string][]model.MenuItem{"menuItems": items})
}

func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req createMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "create menu item", err)
		return
	}
	item, err := h.svc.Create(r.Context(), claims.HotelID, service.CreateMenuItemRequest{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		writeError(w, r, "create menu item", err)
		return
	}
	writeOK(w, http.StatusCreated, "Menu item created", map[string]model.MenuItem{"menuItem": item})
}

func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req updateMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update menu item", err)
		return
	}
	item, err := h.svc.Update(r.Context(), claims.HotelID, chi.URLParam(r, "menuItemId"), service.UpdateMenuItemRequest{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		writeError(w, r, "update menu item", err)
		return
	}
	writeOK(w, http.StatusOK, "Menu item updated", map[string]model.MenuItem{"menuItem": item})
}

func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Delete(r.Context(), claims.HotelID, chi.URLParam(r, "menuItemId"))
	if err != nil {
		writeError(w, r, "delete menu item", err)
		return
	}
	writeOK(w, http.StatusOK, "Menu item deleted", map[string]model.MenuItem{"deletedMenuItem": item})
}
