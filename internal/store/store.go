// Package store keeps every aggregate as one document per hotel per
// collection. A document holds an ordered array of elements and a version
// that is bumped on every save; saves with a stale version are rejected.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Collection string

const (
	Orders       Collection = "orders"
	Bills        Collection = "bills"
	Tables       Collection = "tables"
	Menu         Collection = "menu"
	Reservations Collection = "reservations"
	Staff        Collection = "staff"
	Settings     Collection = "settings"
)

// maxUpdateAttempts bounds the read-modify-write retries on version conflicts.
const maxUpdateAttempts = 5

var (
	ErrNotFound        = errors.New("store: document not found")
	ErrExists          = errors.New("store: document already exists")
	ErrVersionConflict = errors.New("store: version conflict")

	// ErrSkipSave may be returned by an Update mutator to leave the document untouched.
	ErrSkipSave = errors.New("store: skip save")
)

// Raw is a stored document with its element array still encoded as JSON.
type Raw struct {
	Items     []byte
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Backend persists raw hotel documents.
//
// Create fails with ErrExists when the document is already there. Save
// replaces the element array only if the stored version equals expected,
// otherwise it fails with ErrVersionConflict.
type Backend interface {
	Load(ctx context.Context, hotelID string, coll Collection) (Raw, error)
	Create(ctx context.Context, hotelID string, coll Collection, items []byte) (Raw, error)
	Save(ctx context.Context, hotelID string, coll Collection, items []byte, expected int64) (Raw, error)
}

// Document is a decoded hotel document.
type Document[T any] struct {
	HotelID    string
	Collection Collection
	Items      []T
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ensure returns the hotel's document for coll, creating an empty one on first use.
func Ensure[T any](ctx context.Context, b Backend, hotelID string, coll Collection) (*Document[T], error) {
	if hotelID == "" {
		return nil, fmt.Errorf("ensure %s: empty hotel id", coll)
	}

	raw, err := b.Load(ctx, hotelID, coll)
	if errors.Is(err, ErrNotFound) {
		raw, err = b.Create(ctx, hotelID, coll, []byte("[]"))
		if errors.Is(err, ErrExists) {
			// Lost the creation race; the other writer's document is as good.
			raw, err = b.Load(ctx, hotelID, coll)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("ensure %s document: %w", coll, err)
	}
	return decode[T](hotelID, coll, raw)
}

// Update runs a read-modify-write cycle on the hotel's document. mutate may
// be called more than once when concurrent writers race, so it must only
// touch doc. Returning ErrSkipSave from mutate ends the cycle without saving.
func Update[T any](ctx context.Context, b Backend, hotelID string, coll Collection, mutate func(doc *Document[T]) error) (*Document[T], error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := Ensure[T](ctx, b, hotelID, coll)
		if err != nil {
			return nil, err
		}

		if err := mutate(doc); err != nil {
			if errors.Is(err, ErrSkipSave) {
				return doc, nil
			}
			return nil, err
		}

		items, err := encodeItems(doc.Items)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", coll, err)
		}

		raw, err := b.Save(ctx, hotelID, coll, items, doc.Version)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("save %s document: %w", coll, err)
		}
		doc.Version = raw.Version
		doc.UpdatedAt = raw.UpdatedAt
		return doc, nil
	}
	return nil, fmt.Errorf("update %s document: %w", coll, ErrVersionConflict)
}

func decode[T any](hotelID string, coll Collection, raw Raw) (*Document[T], error) {
	doc := &Document[T]{
		HotelID:    hotelID,
		Collection: coll,
		Version:    raw.Version,
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
	}
	if len(raw.Items) > 0 {
		if err := json.Unmarshal(raw.Items, &doc.Items); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", coll, err)
		}
	}
	if doc.Items == nil {
		doc.Items = []T{}
	}
	return doc, nil
}

func encodeItems[T any](items []T) ([]byte, error) {
	if items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(items)
}

// IndexOf returns the index of the first element matching pred, or -1.
func IndexOf[T any](items []T, pred func(T) bool) int {
	for i, it := range items {
		if pred(it) {
			return i
		}
	}
	return -1
}

// Remove deletes the element at i, keeping order.
func Remove[T any](items []T, i int) []T {
	return append(items[:i:i], items[i+1:]...)
}
