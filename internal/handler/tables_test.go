package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/handler"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
)

type mockTableService struct {
	createFn    func(ctx context.Context, hotelID string, req service.CreateTableRequest) (model.Table, error)
	setStatusFn func(ctx context.Context, hotelID, tableID, status string) (model.Table, error)
}

func (m *mockTableService) List(context.Context, string) ([]model.Table, error) {
	return []model.Table{{TableID: "T5", Capacity: 4, Status: enum.TableStatusVacant, IsActive: true}}, nil
}

func (m *mockTableService) Create(ctx context.Context, hotelID string, req service.CreateTableRequest) (model.Table, error) {
	return m.createFn(ctx, hotelID, req)
}

func (m *mockTableService) SetStatus(ctx context.Context, hotelID, tableID, status string) (model.Table, error) {
	return m.setStatusFn(ctx, hotelID, tableID, status)
}

func (m *mockTableService) Delete(context.Context, string, string) (model.Table, error) {
	return model.Table{}, apperr.NotFound("table not found")
}

type mockReservationService struct {
	createFn       func(ctx context.Context, hotelID string, req service.CreateReservationRequest) (model.Reservation, error)
	updateStatusFn func(ctx context.Context, hotelID, reservationID, status string) (*service.ReservationStatusResult, error)
}

func (m *mockReservationService) List(context.Context, string) ([]model.Reservation, error) {
	return []model.Reservation{}, nil
}

func (m *mockReservationService) Create(ctx context.Context, hotelID string, req service.CreateReservationRequest) (model.Reservation, error) {
	return m.createFn(ctx, hotelID, req)
}

func (m *mockReservationService) UpdateStatus(ctx context.Context, hotelID, reservationID, status string) (*service.ReservationStatusResult, error) {
	return m.updateStatusFn(ctx, hotelID, reservationID, status)
}

func newTableRouter(tables handler.TableServicer, reservations handler.ReservationServicer) chi.Router {
	h := handler.NewTableHandler(tables, reservations)
	r := newAuthedRouter()
	r.Route("/tables", func(r chi.Router) {
		h.RegisterTableReadRoutes(r)
		h.RegisterTableAdminRoutes(r)
	})
	r.Route("/reservations", h.RegisterReservationRoutes)
	return r
}

func TestCreateTable_Handler(t *testing.T) {
	var got service.CreateTableRequest
	tables := &mockTableService{
		createFn: func(_ context.Context, _ string, req service.CreateTableRequest) (model.Table, error) {
			got = req
			return model.Table{TableID: req.TableID, Capacity: req.Capacity, Status: enum.TableStatusVacant, IsActive: true}, nil
		},
	}

	rr := doRequest(t, newTableRouter(tables, &mockReservationService{}), http.MethodPost, "/tables",
		`{"tableId":"T5","capacity":4,"location":"patio"}`)
	assertStatus(t, rr, http.StatusCreated)
	if got.TableID != "T5" || got.Capacity != 4 || got.Location != "patio" {
		t.Errorf("request: %+v", got)
	}
}

func TestSetTableStatus_Handler(t *testing.T) {
	var gotID, gotStatus string
	tables := &mockTableService{
		setStatusFn: func(_ context.Context, _, tableID, status string) (model.Table, error) {
			gotID, gotStatus = tableID, status
			return model.Table{TableID: tableID, Status: status}, nil
		},
	}
	r := newTableRouter(tables, &mockReservationService{})

	rr := doRequest(t, r, http.MethodPut, "/tables/T5/status", `{"status":"OCCUPIED"}`)
	assertStatus(t, rr, http.StatusOK)
	if gotID != "T5" || gotStatus != enum.TableStatusOccupied {
		t.Errorf("got %s/%s", gotID, gotStatus)
	}

	rr = doRequest(t, r, http.MethodDelete, "/tables/T9", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestCreateReservation_Handler(t *testing.T) {
	when := time.Date(2024, 3, 1, 19, 30, 0, 0, time.UTC)
	var got service.CreateReservationRequest
	reservations := &mockReservationService{
		createFn: func(_ context.Context, _ string, req service.CreateReservationRequest) (model.Reservation, error) {
			got = req
			return model.Reservation{ReservationID: "RES_1", TableID: req.TableID, Status: enum.ReservationStatusBooked}, nil
		},
	}

	rr := doRequest(t, newTableRouter(&mockTableService{}, reservations), http.MethodPost, "/reservations",
		`{"tableId":"T5","guestName":"Asha","partySize":2,"reservedFor":"2024-03-01T19:30:00Z"}`)
	assertStatus(t, rr, http.StatusCreated)
	if got.GuestName != "Asha" || got.PartySize != 2 || !got.ReservedFor.Equal(when) {
		t.Errorf("request: %+v", got)
	}
}

func TestReservationCancel_Handler(t *testing.T) {
	reservations := &mockReservationService{
		updateStatusFn: func(_ context.Context, _, reservationID, status string) (*service.ReservationStatusResult, error) {
			if status != enum.ReservationStatusCancelled {
				return nil, apperr.Validation("unexpected status %q", status)
			}
			return &service.ReservationStatusResult{
				Reservation: model.Reservation{ReservationID: reservationID, TableID: "T5", Status: status},
				Table:       &model.Table{TableID: "T5", Status: enum.TableStatusVacant},
				Removed:     true,
			}, nil
		},
	}

	rr := doRequest(t, newTableRouter(&mockTableService{}, reservations), http.MethodPut, "/reservations/RES_1/status",
		`{"status":"cancelled"}`)
	assertStatus(t, rr, http.StatusOK)

	env := decodeEnvelope(t, rr)
	if env.Message != "Reservation cancelled" {
		t.Errorf("message: %q", env.Message)
	}
	var data struct {
		Reservation model.Reservation `json:"reservation"`
		Table       *model.Table      `json:"table"`
		Removed     bool              `json:"removed"`
	}
	decodeData(t, env, &data)
	if !data.Removed || data.Table == nil || data.Table.Status != enum.TableStatusVacant {
		t.Errorf("data: %+v", data)
	}
}
