package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/config"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/reqlog"
	"github.com/hotelops/api/internal/store"
)

// reservationTableStatus is the table status each reservation status implies.
var reservationTableStatus = map[string]string{
	enum.ReservationStatusBooked:    enum.TableStatusReserved,
	enum.ReservationStatusSeated:    enum.TableStatusOccupied,
	enum.ReservationStatusCompleted: enum.TableStatusVacant,
	enum.ReservationStatusCancelled: enum.TableStatusVacant,
}

// ReservationService books tables. Every reservation write is followed by a
// table status write; when that fails the reservation write is undone.
type ReservationService struct {
	base
	cfg    config.BillingConfig
	tables *TableService
}

func NewReservationService(backend store.Backend, cfg config.BillingConfig, tables *TableService, pub events.Publisher) *ReservationService {
	return &ReservationService{base: newBase(backend, pub), cfg: cfg, tables: tables}
}

func (s *ReservationService) List(ctx context.Context, hotelID string) ([]model.Reservation, error) {
	doc, err := store.Ensure[model.Reservation](ctx, s.backend, hotelID, store.Reservations)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

type CreateReservationRequest struct {
	TableID     string
	GuestName   string
	GuestPhone  string
	PartySize   int32
	ReservedFor time.Time
	Notes       string
}

// Create stores a booked reservation and marks its table RESERVED.
func (s *ReservationService) Create(ctx context.Context, hotelID string, req CreateReservationRequest) (model.Reservation, error) {
	req.TableID = strings.TrimSpace(req.TableID)
	req.GuestName = strings.TrimSpace(req.GuestName)
	if req.TableID == "" {
		return model.Reservation{}, apperr.Validation("tableId is required")
	}
	if req.GuestName == "" {
		return model.Reservation{}, apperr.Validation("guestName is required")
	}
	if req.PartySize < 1 {
		return model.Reservation{}, apperr.Validation("partySize must be at least 1")
	}
	if req.ReservedFor.IsZero() {
		return model.Reservation{}, apperr.Validation("reservedFor is required")
	}

	ok, err := s.tables.exists(ctx, hotelID, req.TableID)
	if err != nil {
		return model.Reservation{}, err
	}
	if !ok {
		return model.Reservation{}, apperr.NotFound("table %s not found", req.TableID)
	}

	now := s.now()
	var res model.Reservation
	_, err = store.Update(ctx, s.backend, hotelID, store.Reservations, func(doc *store.Document[model.Reservation]) error {
		id, err := newElementID("RES_", func(id string) bool { return findReservation(doc.Items, id) >= 0 })
		if err != nil {
			return err
		}
		res = model.Reservation{
			ReservationID: id,
			TableID:       req.TableID,
			GuestName:     req.GuestName,
			GuestPhone:    strings.TrimSpace(req.GuestPhone),
			PartySize:     req.PartySize,
			ReservedFor:   req.ReservedFor.UTC(),
			Status:        enum.ReservationStatusBooked,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		doc.Items = append(doc.Items, res)
		return nil
	})
	if err != nil {
		return model.Reservation{}, storeErr(err)
	}

	if _, err := s.tables.SetStatus(ctx, hotelID, req.TableID, enum.TableStatusReserved); err != nil {
		reqlog.Printf(ctx, "ERROR: reserve table %s for %s: %v", req.TableID, res.ReservationID, err)
		if cerr := s.restore(ctx, hotelID, res.ReservationID, nil); cerr != nil {
			reqlog.Printf(ctx, "ERROR: compensate reservation %s: %v", res.ReservationID, cerr)
		}
		return model.Reservation{}, err
	}

	s.publish(ctx, events.ReservationCreated, hotelID, res)
	return res, nil
}

// ReservationStatusResult reports the reservation after a status change.
// Removed is set when a cancellation deleted the record.
type ReservationStatusResult struct {
	Reservation model.Reservation
	Table       *model.Table
	Removed     bool
}

// UpdateStatus moves a reservation and applies the implied table status.
// Cancelling deletes the reservation unless soft cancel is configured.
func (s *ReservationService) UpdateStatus(ctx context.Context, hotelID, reservationID, status string) (*ReservationStatusResult, error) {
	if !enum.IsReservationStatus(status) {
		return nil, apperr.Validation("invalid reservation status %q", status)
	}

	remove := status == enum.ReservationStatusCancelled && !s.cfg.SoftCancelReservations

	var prev, updated model.Reservation
	_, err := store.Update(ctx, s.backend, hotelID, store.Reservations, func(doc *store.Document[model.Reservation]) error {
		i := findReservation(doc.Items, reservationID)
		if i < 0 {
			return apperr.NotFound("reservation %s not found", reservationID)
		}
		prev = doc.Items[i]
		updated = prev
		updated.Status = status
		updated.UpdatedAt = s.now()
		if remove {
			doc.Items = store.Remove(doc.Items, i)
		} else {
			doc.Items[i] = updated
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	result := &ReservationStatusResult{Reservation: updated, Removed: remove}

	table, err := s.tables.SetStatus(ctx, hotelID, prev.TableID, reservationTableStatus[status])
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		// The table was deleted since booking; nothing to coordinate.
		reqlog.Printf(ctx, "WARNING: reservation %s references missing table %s", reservationID, prev.TableID)
	case err != nil:
		reqlog.Printf(ctx, "ERROR: set table %s for reservation %s: %v", prev.TableID, reservationID, err)
		if cerr := s.restore(ctx, hotelID, reservationID, &prev); cerr != nil {
			reqlog.Printf(ctx, "ERROR: compensate reservation %s: %v", reservationID, cerr)
		}
		return nil, err
	default:
		result.Table = &table
	}

	if remove {
		s.publish(ctx, events.ReservationDeleted, hotelID, updated)
	} else {
		s.publish(ctx, events.ReservationUpdated, hotelID, updated)
	}
	return result, nil
}

// restore puts prev back in place of reservationID, or removes the
// reservation when prev is nil.
func (s *ReservationService) restore(ctx context.Context, hotelID, reservationID string, prev *model.Reservation) error {
	_, err := store.Update(ctx, s.backend, hotelID, store.Reservations, func(doc *store.Document[model.Reservation]) error {
		i := findReservation(doc.Items, reservationID)
		switch {
		case prev == nil && i >= 0:
			doc.Items = store.Remove(doc.Items, i)
		case prev != nil && i >= 0:
			doc.Items[i] = *prev
		case prev != nil:
			doc.Items = append(doc.Items, *prev)
		default:
			return store.ErrSkipSave
		}
		return nil
	})
	return err
}

func findReservation(items []model.Reservation, id string) int {
	return store.IndexOf(items, func(r model.Reservation) bool { return r.ReservationID == id })
}
