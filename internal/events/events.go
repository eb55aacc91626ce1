// Package events fans hotel state changes out to dashboards and downstream
// consumers so nothing has to poll for kitchen, table or billing updates.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Event types. The dot-separated form doubles as the AMQP routing key.
const (
	OrderCreated       = "order.created"
	OrderUpdated       = "order.updated"
	OrderDeleted       = "order.deleted"
	OrderItemUpdated   = "order.item_updated"
	BillCreated        = "bill.created"
	BillUpdated        = "bill.updated"
	BillDeleted        = "bill.deleted"
	TableUpdated       = "table.updated"
	TableDeleted       = "table.deleted"
	ReservationCreated = "reservation.created"
	ReservationUpdated = "reservation.updated"
	ReservationDeleted = "reservation.deleted"
	MenuUpdated        = "menu.updated"
	SettingsUpdated    = "settings.updated"
)

type Event struct {
	Type    string          `json:"type"`
	HotelID string          `json:"hotelId"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// New builds an event with payload encoded as JSON.
func New(typ, hotelID string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return Event{Type: typ, HotelID: hotelID, Payload: data, At: time.Now().UTC()}, nil
}

// Publisher delivers an event to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Multi publishes to every publisher in turn, joining their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
