package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
)

// StaffServicer is satisfied by *service.StaffService.
type StaffServicer interface {
	List(ctx context.Context, hotelID string) ([]model.Staff, error)
	Create(ctx context.Context, hotelID string, req service.CreateStaffRequest) (model.Staff, error)
}

type StaffHandler struct {
	svc StaffServicer
}

func NewStaffHandler(svc StaffServicer) *StaffHandler {
	return &StaffHandler{svc: svc}
}

// RegisterRoutes is mounted at /staff, admin only.
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

type createStaffRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// staffResponse never carries the password hash.
type staffResponse struct {
	StaffID   string    `json:"staffId"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toStaffResponse(s model.Staff) staffResponse {
	return staffResponse{
		StaffID:   s.StaffID,
		Username:  s.Username,
		FullName:  s.FullName,
		Role:      s.Role,
		IsActive:  s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	staff, err := h.svc.List(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "list staff", err)
		return
	}
	out := make([]staffResponse, len(staff))
	for i, s := range staff {
		out[i] = toStaffResponse(s)
	}
	writeOK(w, http.StatusOK, "Staff fetched", map[string][]staffResponse{"staff": out})
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req createStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "create staff", err)
		return
	}
	created, err := h.svc.Create(r.Context(), claims.HotelID, service.CreateStaffRequest{
		Username: req.Username,
		FullName: req.FullName,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, "create staff", err)
		return
	}
	writeOK(w, http.StatusCreated, "Staff created", map[string]staffResponse{"staff": toStaffResponse(created)})
}
