package service

import (
	"context"
	"strings"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/store"
)

// TableService coordinates table status. Reservations, order completion and
// staff all write status through SetStatus; the last writer wins.
type TableService struct {
	base
}

func NewTableService(backend store.Backend, pub events.Publisher) *TableService {
	return &TableService{base: newBase(backend, pub)}
}

func (s *TableService) List(ctx context.Context, hotelID string) ([]model.Table, error) {
	doc, err := store.Ensure[model.Table](ctx, s.backend, hotelID, store.Tables)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

type CreateTableRequest struct {
	TableID  string
	Capacity int32
	Location string
	Status   string
}

func (s *TableService) Create(ctx context.Context, hotelID string, req CreateTableRequest) (model.Table, error) {
	req.TableID = strings.TrimSpace(req.TableID)
	if req.TableID == "" {
		return model.Table{}, apperr.Validation("tableId is required")
	}
	if req.Capacity < 1 {
		return model.Table{}, apperr.Validation("capacity must be at least 1")
	}
	if req.Status == "" {
		req.Status = enum.TableStatusVacant
	}
	if !enum.IsTableStatus(req.Status) {
		return model.Table{}, apperr.Validation("invalid table status %q", req.Status)
	}

	table := model.Table{
		TableID:   req.TableID,
		Capacity:  req.Capacity,
		Status:    req.Status,
		Location:  strings.TrimSpace(req.Location),
		IsActive:  true,
		UpdatedAt: s.now(),
	}
	_, err := store.Update(ctx, s.backend, hotelID, store.Tables, func(doc *store.Document[model.Table]) error {
		if findTable(doc.Items, table.TableID) >= 0 {
			return apperr.Conflict("table %s already exists", table.TableID)
		}
		doc.Items = append(doc.Items, table)
		return nil
	})
	if err != nil {
		return model.Table{}, storeErr(err)
	}

	s.publish(ctx, events.TableUpdated, hotelID, table)
	return table, nil
}

// SetStatus forces the table into status.
func (s *TableService) SetStatus(ctx context.Context, hotelID, tableID, status string) (model.Table, error) {
	if !enum.IsTableStatus(status) {
		return model.Table{}, apperr.Validation("invalid table status %q", status)
	}

	var updated model.Table
	_, err := store.Update(ctx, s.backend, hotelID, store.Tables, func(doc *store.Document[model.Table]) error {
		i := findTable(doc.Items, tableID)
		if i < 0 {
			return apperr.NotFound("table %s not found", tableID)
		}
		doc.Items[i].Status = status
		doc.Items[i].UpdatedAt = s.now()
		updated = doc.Items[i]
		return nil
	})
	if err != nil {
		return model.Table{}, storeErr(err)
	}

	s.publish(ctx, events.TableUpdated, hotelID, updated)
	return updated, nil
}

func (s *TableService) Delete(ctx context.Context, hotelID, tableID string) (model.Table, error) {
	var deleted model.Table
	_, err := store.Update(ctx, s.backend, hotelID, store.Tables, func(doc *store.Document[model.Table]) error {
		i := findTable(doc.Items, tableID)
		if i < 0 {
			return apperr.NotFound("table %s not found", tableID)
		}
		deleted = doc.Items[i]
		doc.Items = store.Remove(doc.Items, i)
		return nil
	})
	if err != nil {
		return model.Table{}, storeErr(err)
	}

	s.publish(ctx, events.TableDeleted, hotelID, deleted)
	return deleted, nil
}

// exists reports whether tableID is a known table of the hotel.
func (s *TableService) exists(ctx context.Context, hotelID, tableID string) (bool, error) {
	tables, err := s.List(ctx, hotelID)
	if err != nil {
		return false, err
	}
	return findTable(tables, tableID) >= 0, nil
}

func findTable(tables []model.Table, tableID string) int {
	return store.IndexOf(tables, func(t model.Table) bool { return t.TableID == tableID })
}
