// Package model holds the elements stored inside per-hotel documents.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order. TotalPrice is always Quantity × UnitPrice.
type OrderItem struct {
	ItemID     string          `json:"itemId"`
	MenuItemID string          `json:"menuItemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	StartedAt  *time.Time      `json:"startedAt"`
	ReadyAt    *time.Time      `json:"readyAt"`
	ServedAt   *time.Time      `json:"servedAt"`
}

// BillDetails is the order's embedded payment snapshot. The Bill is authoritative.
type BillDetails struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	PaymentMethod *string         `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
}

type OrderTime struct {
	PlacedAt    time.Time  `json:"placedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

type Order struct {
	OrderID        string      `json:"orderId"`
	TableID        string      `json:"tableId"`
	OrderType      string      `json:"orderType"`
	Notes          string      `json:"notes,omitempty"`
	OrderStatus    string      `json:"orderStatus"`
	OrderedItems   []OrderItem `json:"orderedItems"`
	BillDetails    BillDetails `json:"billDetails"`
	OrderTime      OrderTime   `json:"orderTime"`
	WaiterAssigned string      `json:"waiterAssigned"`
	IsActive       bool        `json:"isActive"`
	BillID         string      `json:"billId,omitempty"`
	Version        int64       `json:"version"`
}

// BillItem is the snapshot of an order line taken when the bill is generated.
type BillItem struct {
	ItemID     string          `json:"itemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type PaymentDetails struct {
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Tax           decimal.Decimal  `json:"tax"`
	ServiceCharge decimal.Decimal  `json:"serviceCharge"`
	Discount      decimal.Decimal  `json:"discount"`
	GrandTotal    decimal.Decimal  `json:"grandTotal"`
	PaymentMethod *string          `json:"paymentMethod"`
	PaymentStatus string           `json:"paymentStatus"`
	PaidAmount    *decimal.Decimal `json:"paidAmount"`
	ChangeAmount  *decimal.Decimal `json:"changeAmount"`
	PaidAt        *time.Time       `json:"paidAt"`
}

type Bill struct {
	BillID          string         `json:"billId"`
	OrderID         string         `json:"orderId"`
	TableID         string         `json:"tableId"`
	Items           []BillItem     `json:"items"`
	PaymentDetails  PaymentDetails `json:"paymentDetails"`
	BillGeneratedAt time.Time      `json:"billGeneratedAt"`
	GeneratedBy     string         `json:"generatedBy"`
	Version         int64          `json:"version"`
}

type Table struct {
	TableID   string    `json:"tableId"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Reservation struct {
	ReservationID string    `json:"reservationId"`
	TableID       string    `json:"tableId"`
	GuestName     string    `json:"guestName"`
	GuestPhone    string    `json:"guestPhone,omitempty"`
	PartySize     int32     `json:"partySize"`
	ReservedFor   time.Time `json:"reservedFor"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type MenuItem struct {
	MenuItemID  string          `json:"menuItemId"`
	Name        string          `json:"name"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"isAvailable"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type Staff struct {
	StaffID      string    `json:"staffId"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"`
	// PasswordHash is serialized because staff documents are stored as JSON.
	// Handlers respond with staffResponse, which drops it.
	PasswordHash string    `json:"passwordHash"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TaxConfig struct {
	TaxPercentage           decimal.Decimal `json:"taxPercentage"`
	ServiceChargePercentage decimal.Decimal `json:"serviceChargePercentage"`
}

// HotelSettings is stored as the single element of the settings collection.
type HotelSettings struct {
	Name      string    `json:"name"`
	TaxConfig TaxConfig `json:"taxConfig"`
	UpdatedAt time.Time `json:"updatedAt"`
}
