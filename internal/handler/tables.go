package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
)

// TableServicer is satisfied by *service.TableService.
type TableServicer interface {
	List(ctx context.Context, hotelID string) ([]model.Table, error)
	Create(ctx context.Context, hotelID string, req service.CreateTableRequest) (model.Table, error)
	SetStatus(ctx context.Context, hotelID, tableID, status string) (model.Table, error)
	Delete(ctx context.Context, hotelID, tableID string) (model.Table, error)
}

// ReservationServicer is satisfied by *service.ReservationService.
type ReservationServicer interface {
	List(ctx context.Context, hotelID string) ([]model.Reservation, error)
	Create(ctx context.Context, hotelID string, req service.CreateReservationRequest) (model.Reservation, error)
	UpdateStatus(ctx context.Context, hotelID, reservationID, status string) (*service.ReservationStatusResult, error)
}

type TableHandler struct {
	tables       TableServicer
	reservations ReservationServicer
}

func NewTableHandler(tables TableServicer, reservations ReservationServicer) *TableHandler {
	return &TableHandler{tables: tables, reservations: reservations}
}

// RegisterTableReadRoutes is mounted at /tables for every role; floor staff
// and the kitchen both flip table status.
func (h *TableHandler) RegisterTableReadRoutes(r chi.Router) {
	r.Get("/", h.ListTables)
	r.Put("/{tableId}/status", h.SetTableStatus)
}

// RegisterTableAdminRoutes is mounted at /tables for admins.
func (h *TableHandler) RegisterTableAdminRoutes(r chi.Router) {
	r.Post("/", h.CreateTable)
	r.Delete("/{tableId}", h.DeleteTable)
}

// RegisterReservationRoutes is mounted at /reservations.
func (h *TableHandler) RegisterReservationRoutes(r chi.Router) {
	r.Get("/", h.ListReservations)
	r.Post("/", h.CreateReservation)
	r.Put("/{reservationId}/status", h.UpdateReservationStatus)
}

// --- Request types ---

type createTableRequest struct {
	TableID  string `json:"tableId"`
	Capacity int32  `json:"capacity"`
	Location string `json:"location"`
	Status   string `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type createReservationRequest struct {
	TableID     string    `json:"tableId"`
	GuestName   string    `json:"guestName"`
	GuestPhone  string    `json:"guestPhone"`
	PartySize   int32     `json:"partySize"`
	ReservedFor time.Time `json:"reservedFor"`
	Notes       string    `json:"notes"`
}

type reservationStatusResponse struct {
	Reservation model.Reservation `json:"reservation"`
	Table       *model.Table      `json:"table"`
	Removed     bool              `json:"removed"`
}

// --- Tables ---

func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	tables, err := h.tables.List(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "list tables", err)
		return
	}
	writeOK(w, http.StatusOK, "Tables fetched", map[string][]model.Table{"tables": tables})
}

func (h *TableHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req createTableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "create table", err)
		return
	}
	table, err := h.tables.Create(r.Context(), claims.HotelID, service.CreateTableRequest{
		TableID:  req.TableID,
		Capacity: req.Capacity,
		Location: req.Location,
		Status:   req.Status,
	})
	if err != nil {
		writeError(w, r, "create table", err)
		return
	}
	writeOK(w, http.StatusCreated, "Table created", map[string]model.Table{"table": table})
}

func (h *TableHandler) SetTableStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "set table status", err)
		return
	}
	table, err := h.tables.SetStatus(r.Context(), claims.HotelID, chi.URLParam(r, "tableId"), req.Status)
	if err != nil {
		writeError(w, r, "set table status", err)
		return
	}
	writeOK(w, http.StatusOK, "Table status updated", map[string]model.Table{"table": table})
}

func (h *TableHandler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	table, err := h.tables.Delete(r.Context(), claims.HotelID, chi.URLParam(r, "tableId"))
	if err != nil {
		writeError(w, r, "delete table", err)
		return
	}
	writeOK(w, http.StatusOK, "Table deleted", map[string]model.Table{"deletedTable": table})
}

// --- Reservations ---

func (h *TableHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	list, err := h.reservations.List(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "list reservations", err)
		return
	}
	writeOK(w, http.StatusOK, "Reservations fetched", map[string][]model.Reservation{"reservations": list})
}

func (h *TableHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "create reservation", err)
		return
	}
	res, err := h.reservations.Create(r.Context(), claims.HotelID, service.CreateReservationRequest{
		TableID:     req.TableID,
		GuestName:   req.GuestName,
		GuestPhone:  req.GuestPhone,
		PartySize:   req.PartySize,
		ReservedFor: req.ReservedFor,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, r, "create reservation", err)
		return
	}
	writeOK(w, http.StatusCreated, "Reservation created", map[string]model.Reservation{"reservation": res})
}

// UpdateReservationStatus handles PUT /reservations/{reservationId}/status.
// A cancellation deletes the reservation unless soft cancel is configured.
func (h *TableHandler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update reservation", err)
		return
	}
	result, err := h.reservations.UpdateStatus(r.Context(), claims.HotelID, chi.URLParam(r, "reservationId"), req.Status)
	if err != nil {
		writeError(w, r, "update reservation", err)
		return
	}

	message := "Reservation updated"
	if result.Removed {
		message = "Reservation cancelled"
	}
	writeOK(w, http.StatusOK, message, reservationStatusResponse{
		Reservation: result.Reservation,
		Table:       result.Table,
		Removed:     result.Removed,
	})
}
