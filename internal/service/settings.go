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

var maxPercent = decimal.NewFromInt(100)

// SettingsService owns the hotel's single settings element.
type SettingsService struct {
	base
}

func NewSettingsService(backend store.Backend, pub events.Publisher) *SettingsService {
	return &SettingsService{base: newBase(backend, pub)}
}

// Get returns the hotel settings, zero rates when never configured.
func (s *SettingsService) Get(ctx context.Context, hotelID string) (model.HotelSettings, error) {
	doc, err := store.Ensure[model.HotelSettings](ctx, s.backend, hotelID, store.Settings)
	if err != nil {
		return model.HotelSettings{}, err
	}
	if len(doc.Items) == 0 {
		return model.HotelSettings{}, nil
	}
	return doc.Items[0], nil
}

type UpdateSettingsRequest struct {
	Name                    *string
	TaxPercentage           *decimal.Decimal
	ServiceChargePercentage *decimal.Decimal
}

func (s *SettingsService) Update(ctx context.Context, hotelID string, req UpdateSettingsRequest) (model.HotelSettings, error) {
	if err := validatePercent("taxPercentage", req.TaxPercentage); err != nil {
		return model.HotelSettings{}, err
	}
	if err := validatePercent("serviceChargePercentage", req.ServiceChargePercentage); err != nil {
		return model.HotelSettings{}, err
	}

	var updated model.HotelSettings
	_, err := store.Update(ctx, s.backend, hotelID, store.Settings, func(doc *store.Document[model.HotelSettings]) error {
		var cur model.HotelSettings
		if len(doc.Items) > 0 {
			cur = doc.Items[0]
		}
		if req.Name != nil {
			cur.Name = strings.TrimSpace(*req.Name)
		}
		if req.TaxPercentage != nil {
			cur.TaxConfig.TaxPercentage = *req.TaxPercentage
		}
		if req.ServiceChargePercentage != nil {
			cur.TaxConfig.ServiceChargePercentage = *req.ServiceChargePercentage
		}
		cur.UpdatedAt = s.now()
		doc.Items = []model.HotelSettings{cur}
		updated = cur
		return nil
	})
	if err != nil {
		return model.HotelSettings{}, storeErr(err)
	}

	s.publish(ctx, events.SettingsUpdated, hotelID, updated)
	return updated, nil
}

func validatePercent(field string, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() || v.GreaterThan(maxPercent) {
		return apperr.Validation("%s must be between 0 and 100", field)
	}
	return nil
}
