package enum

// ── Group A: State machines ──

const (
	OrderStatusOngoing   = "ONGOING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	ItemStatusPending   = "PENDING"
	ItemStatusPreparing = "PREPARING"
	ItemStatusReady     = "READY"
	ItemStatusServed    = "SERVED"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusPaid      = "PAID"
	PaymentStatusCancelled = "CANCELLED"
)

const (
	TableStatusVacant      = "VACANT"
	TableStatusOccupied    = "OCCUPIED"
	TableStatusReserved    = "RESERVED"
	TableStatusMaintenance = "MAINTENANCE"
)

// Reservation statuses are lower-case on the wire; the dashboards send them that way.
const (
	ReservationStatusBooked    = "booked"
	ReservationStatusSeated    = "seated"
	ReservationStatusCompleted = "completed"
	ReservationStatusCancelled = "cancelled"
)

// ── Group C: Borderline ──

const (
	StaffRoleAdmin        = "ADMIN"
	StaffRoleReceptionist = "RECEPTIONIST"
	StaffRoleCook         = "COOK"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeRoom     = "ROOM_SERVICE"
)

// ── Group B: Configurable labels ──

const (
	PaymentMethodCash  = "CASH"
	PaymentMethodCard  = "CARD"
	PaymentMethodUPI   = "UPI"
	PaymentMethodOther = "OTHER"
)

func IsOrderStatus(s string) bool {
	switch s {
	case OrderStatusOngoing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func IsItemStatus(s string) bool {
	switch s {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusServed:
		return true
	}
	return false
}

func IsPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	}
	return false
}

func IsPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOther:
		return true
	}
	return false
}

func IsTableStatus(s string) bool {
	switch s {
	case TableStatusVacant, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance:
		return true
	}
	return false
}

func IsReservationStatus(s string) bool {
	switch s {
	case ReservationStatusBooked, ReservationStatusSeated,
		ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	}
	return false
}

func IsStaffRole(s string) bool {
	switch s {
	case StaffRoleAdmin, StaffRoleReceptionist, StaffRoleCook:
		return true
	}
	return false
}

func IsOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeRoom:
		return true
	}
	return false
}
