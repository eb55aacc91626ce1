package service

import (
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/enum"
)

// allowedOrderTransitions defines valid order status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedOrderTransitions = map[string][]string{
	enum.OrderStatusOngoing: {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

// nextItemStatus is the kitchen flow: each status may only advance one step.
var nextItemStatus = map[string]string{
	enum.ItemStatusPending:   enum.ItemStatusPreparing,
	enum.ItemStatusPreparing: enum.ItemStatusReady,
	enum.ItemStatusReady:     enum.ItemStatusServed,
}

// validateOrderTransition checks if the order may move from current to next.
// With strict off any valid status is accepted. Same-state is always allowed.
func validateOrderTransition(current, next string, strict bool) error {
	if current == next || !strict {
		return nil
	}
	for _, s := range allowedOrderTransitions[current] {
		if s == next {
			return nil
		}
	}
	return apperr.Conflict("cannot transition order from %s to %s", current, next)
}

// validateItemTransition checks if an item may move from current to next.
func validateItemTransition(current, next string) error {
	if current == next || nextItemStatus[current] == next {
		return nil
	}
	return apperr.Conflict("cannot transition item from %s to %s", current, next)
}
