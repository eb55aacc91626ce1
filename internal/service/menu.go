package service

import (
	"context"
	"strings"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/store"
	"github.com/shopspring/decimal"
)

type MenuService struct {
	base
}

func NewMenuService(backend store.Backend, pub events.Publisher) *MenuService {
	return &MenuService{base: newBase(backend, pub)}
}

func (s *MenuService) List(ctx context.Context, hotelID string) ([]model.MenuItem, error) {
	doc, err := store.Ensure[model.MenuItem](ctx, s.backend, hotelID, store.Menu)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

type CreateMenuItemRequest struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	IsAvailable *bool
}

func (s *MenuService) Create(ctx context.Context, hotelID string, req CreateMenuItemRequest) (model.MenuItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.MenuItem{}, apperr.Validation("name is required")
	}
	if req.Price.IsNegative() {
		return model.MenuItem{}, apperr.Validation("price must be >= 0")
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	now := s.now()
	var item model.MenuItem
	_, err := store.Update(ctx, s.backend, hotelID, store.Menu, func(doc *store.Document[model.MenuItem]) error {
		if findMenuItemByName(doc.Items, req.Name, "") >= 0 {
			return apperr.Conflict("menu item %q already exists", req.Name)
		}
		id, err := newElementID("MENU_", func(id string) bool { return findMenuItem(doc.Items, id) >= 0 })
		if err != nil {
			return err
		}
		item = model.MenuItem{
			MenuItemID:  id,
			Name:        req.Name,
			Category:    strings.TrimSpace(req.Category),
			Price:       req.Price,
			IsAvailable: available,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		doc.Items = append(doc.Items, item)
		return nil
	})
	if err != nil {
		return model.MenuItem{}, storeErr(err)
	}

	s.publish(ctx, events.MenuUpdated, hotelID, item)
	return item, nil
}

type UpdateMenuItemRequest struct {
	Name        *string
	Category    *string
	Price       *decimal.Decimal
	IsAvailable *bool
}

func (s *MenuService) Update(ctx context.Context, hotelID, menuItemID string, req UpdateMenuItemRequest) (model.MenuItem, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.MenuItem{}, apperr.Validation("name must not be empty")
		}
		req.Name = &name
	}
	if req.Price != nil && req.Price.IsNegative() {
		return model.MenuItem{}, apperr.Validation("price must be >= 0")
	}

	var updated model.MenuItem
	_, err := store.Update(ctx, s.backend, hotelID, store.Menu, func(doc *store.Document[model.MenuItem]) error {
		i := findMenuItem(doc.Items, menuItemID)
		if i < 0 {
			return apperr.NotFound("menu item %s not found", menuItemID)
		}
		item := doc.Items[i]
		if req.Name != nil {
			if findMenuItemByName(doc.Items, *req.Name, menuItemID) >= 0 {
				return apperr.Conflict("menu item %q already exists", *req.Name)
			}
			item.Name = *req.Name
		}
		if req.Category != nil {
			item.Category = strings.TrimSpace(*req.Category)
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.IsAvailable != nil {
			item.IsAvailable = *req.IsAvailable
		}
		item.UpdatedAt = s.now()
		doc.Items[i] = item
		updated = item
		return nil
	})
	if err != nil {
		return model.MenuItem{}, storeErr(err)
	}

	s.publish(ctx, events.MenuUpdated, hotelID, updated)
	return updated, nil
}

func (s *MenuService) Delete(ctx context.Context, hotelID, menuItemID string) (model.MenuItem, error) {
	var deleted model.MenuItem
	_, err := store.Update(ctx, s.backend, hotelID, store.Menu, func(doc *store.Document[model.MenuItem]) error {
		i := findMenuItem(doc.Items, menuItemID)
		if i < 0 {
			return apperr.NotFound("menu item %s not found", menuItemID)
		}
		deleted = doc.Items[i]
		doc.Items = store.Remove(doc.Items, i)
		return nil
	})
	if err != nil {
		return model.MenuItem{}, storeErr(err)
	}

	s.publish(ctx, events.MenuUpdated, hotelID, map[string]string{"deletedMenuItemId": menuItemID})
	return deleted, nil
}

func findMenuItem(items []model.MenuItem, id string) int {
	return store.IndexOf(items, func(m model.MenuItem) bool { return m.MenuItemID == id })
}

// findMenuItemByName matches case-insensitively, ignoring the item exceptID.
func findMenuItemByName(items []model.MenuItem, name, exceptID string) int {
	return store.IndexOf(items, func(m model.MenuItem) bool {
		return m.MenuItemID != exceptID && strings.EqualFold(m.Name, name)
	})
}
