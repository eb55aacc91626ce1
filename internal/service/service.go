// Package service implements the hotel order lifecycle and billing
// reconciliation on top of per-hotel documents.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/reqlog"
	"github.com/hotelops/api/internal/store"
)

const maxIDAttempts = 3

// newUUID is swapped in tests to force id collisions.
var newUUID = uuid.NewString

var errIDExhausted = errors.New("could not generate a unique id")

// base carries what every service needs: the document backend, the event
// publisher and a clock.
type base struct {
	backend store.Backend
	events  events.Publisher
	now     func() time.Time
}

func newBase(backend store.Backend, pub events.Publisher) base {
	if pub == nil {
		pub = events.Nop{}
	}
	return base{backend: backend, events: pub, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the service clock. Used by tests.
func (b *base) SetClock(now func() time.Time) { b.now = now }

// publish emits an event. Delivery failures are logged; the write that
// caused the event has already been stored.
func (b *base) publish(ctx context.Context, typ, hotelID string, payload any) {
	ev, err := events.New(typ, hotelID, payload)
	if err == nil {
		err = b.events.Publish(ctx, ev)
	}
	if err != nil {
		reqlog.Printf(ctx, "ERROR: publish %s for hotel %s: %v", typ, hotelID, err)
	}
}

// newElementID returns prefix+uuid, regenerated while taken reports a collision.
func newElementID(prefix string, taken func(id string) bool) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := prefix + newUUID()
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s id: %w", prefix, errIDExhausted)
}

// checkVersion rejects a write based on a stale element version.
func checkVersion(expected *int64, actual int64, what string) error {
	if expected != nil && *expected != actual {
		return apperr.Conflict("%s was modified by someone else (version %d, now %d)", what, *expected, actual)
	}
	return nil
}

// storeErr translates backend errors that staff can act on.
func storeErr(err error) error {
	if errors.Is(err, store.ErrVersionConflict) {
		return &apperr.Error{Kind: apperr.KindConflict, Msg: "too many concurrent updates, please retry", Err: err}
	}
	return err
}
