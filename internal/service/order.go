package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/config"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/events"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/pricing"
	"github.com/hotelops/api/internal/reqlog"
	"github.com/hotelops/api/internal/store"
	"github.com/shopspring/decimal"
)

// OrderService runs the order state machine.
type OrderService struct {
	base
	cfg      config.BillingConfig
	bills    *BillService
	tables   *TableService
	settings *SettingsService
}

func NewOrderService(backend store.Backend, cfg config.BillingConfig, bills *BillService, tables *TableService, settings *SettingsService, pub events.Publisher) *OrderService {
	return &OrderService{
		base:     newBase(backend, pub),
		cfg:      cfg,
		bills:    bills,
		tables:   tables,
		settings: settings,
	}
}

// CreateOrderRequest is the input for creating an order. Item fields are
// pointers so that a missing field can be told apart from a zero value.
type CreateOrderRequest struct {
	TableID        string
	OrderType      string
	Notes          string
	WaiterAssigned string // acting staff username, from the token
	Items          []CreateOrderItemRequest
}

type CreateOrderItemRequest struct {
	MenuItemID string
	Name       string
	Quantity   *int32
	UnitPrice  *decimal.Decimal
}

type CreateOrderResult struct {
	Order       model.Order
	TotalOrders int
}

// Create validates and stores a new ONGOING order priced with the order
// tax rate. When bills are generated automatically the bill is created in
// the same call, and the order is removed again if that fails.
func (s *OrderService) Create(ctx context.Context, hotelID string, req CreateOrderRequest) (*CreateOrderResult, error) {
	// --- Validate ---
	req.TableID = strings.TrimSpace(req.TableID)
	if req.TableID == "" {
		return nil, apperr.Validation("tableId is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("items are required")
	}
	if req.OrderType == "" {
		req.OrderType = enum.OrderTypeDineIn
	}
	if !enum.IsOrderType(req.OrderType) {
		return nil, apperr.Validation("invalid orderType %q", req.OrderType)
	}
	for i, it := range req.Items {
		if err := validateOrderItem(i, it); err != nil {
			return nil, err
		}
	}

	// --- Price ---
	taxPercent := s.cfg.OrderTaxPercent
	if s.cfg.UseHotelTaxRate {
		settings, err := s.settings.Get(ctx, hotelID)
		if err != nil {
			return nil, err
		}
		taxPercent = settings.TaxConfig.TaxPercentage
	}

	items := make([]model.OrderItem, len(req.Items))
	lines := make([]pricing.Line, len(req.Items))
	for i, it := range req.Items {
		items[i] = model.OrderItem{
			ItemID:     uuid.NewString(),
			MenuItemID: strings.TrimSpace(it.MenuItemID),
			ItemName:   strings.TrimSpace(it.Name),
			Quantity:   *it.Quantity,
			UnitPrice:  *it.UnitPrice,
			TotalPrice: pricing.LineTotal(*it.Quantity, *it.UnitPrice),
			Status:     enum.ItemStatusPending,
		}
		lines[i] = pricing.Line{Quantity: *it.Quantity, UnitPrice: *it.UnitPrice}
	}
	totals := pricing.Calculate(lines, pricing.Rates{TaxPercent: taxPercent}, decimal.Zero)

	// --- Store ---
	var result CreateOrderResult
	_, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		id, err := newElementID("ORD_", func(id string) bool { return findOrder(doc.Items, id) >= 0 })
		if err != nil {
			return err
		}
		result.Order = model.Order{
			OrderID:      id,
			TableID:      req.TableID,
			OrderType:    req.OrderType,
			Notes:        req.Notes,
			OrderStatus:  enum.OrderStatusOngoing,
			OrderedItems: items,
			BillDetails: model.BillDetails{
				Subtotal:      totals.Subtotal,
				Tax:           totals.Tax,
				GrandTotal:    totals.GrandTotal,
				PaymentStatus: enum.PaymentStatusPending,
			},
			OrderTime:      model.OrderTime{PlacedAt: s.now()},
			WaiterAssigned: req.WaiterAssigned,
			IsActive:       true,
			Version:        1,
		}
		doc.Items = append(doc.Items, result.Order)
		result.TotalOrders = len(doc.Items)
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	// --- Bill ---
	if s.cfg.AutoGenerateBill {
		bill, err := s.bills.Generate(ctx, hotelID, result.Order.OrderID, req.WaiterAssigned)
		if err != nil {
			reqlog.Printf(ctx, "ERROR: generate bill for order %s: %v", result.Order.OrderID, err)
			if _, cerr := s.remove(ctx, hotelID, result.Order.OrderID); cerr != nil {
				reqlog.Printf(ctx, "ERROR: compensate order %s: %v", result.Order.OrderID, cerr)
			}
			return nil, err
		}
		// Mirror the link write Generate made to the stored order.
		result.Order.BillID = bill.BillID
		result.Order.Version++
		if s.cfg.SyncOrderFromBill {
			result.Order.BillDetails = billDetailsFrom(bill.PaymentDetails)
		}
	}

	s.publish(ctx, events.OrderCreated, hotelID, result.Order)
	return &result, nil
}

func validateOrderItem(i int, it CreateOrderItemRequest) error {
	switch {
	case strings.TrimSpace(it.MenuItemID) == "":
		return apperr.Validation("items[%d].menuItemId is required", i)
	case strings.TrimSpace(it.Name) == "":
		return apperr.Validation("items[%d].name is required", i)
	case it.Quantity == nil:
		return apperr.Validation("items[%d].quantity is required", i)
	case *it.Quantity < 1:
		return apperr.Validation("items[%d].quantity must be at least 1", i)
	case it.UnitPrice == nil:
		return apperr.Validation("items[%d].unitPrice is required", i)
	case it.UnitPrice.IsNegative():
		return apperr.Validation("items[%d].unitPrice must be >= 0", i)
	}
	return nil
}

type OrderFilter struct {
	Status  string
	TableID string
}

type OrderStats struct {
	Total     int             `json:"total"`
	Ongoing   int             `json:"ongoing"`
	Completed int             `json:"completed"`
	Cancelled int             `json:"cancelled"`
	Paid      int             `json:"paid"`
	Pending   int             `json:"pending"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type OrderList struct {
	Orders    []model.Order
	Stats     OrderStats
	UpdatedAt time.Time
}

// List returns the hotel's orders with payment state taken from their
// bills. Stats cover every order; the filter only narrows Orders.
func (s *OrderService) List(ctx context.Context, hotelID string, filter OrderFilter) (*OrderList, error) {
	if filter.Status != "" && !enum.IsOrderStatus(filter.Status) {
		return nil, apperr.Validation("invalid status filter %q", filter.Status)
	}

	doc, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return nil, err
	}
	bills, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return nil, err
	}
	overlayBills(doc.Items, bills.Items)

	stats := OrderStats{Total: len(doc.Items), Revenue: decimal.Zero}
	orders := make([]model.Order, 0, len(doc.Items))
	for _, o := range doc.Items {
		switch o.OrderStatus {
		case enum.OrderStatusOngoing:
			stats.Ongoing++
		case enum.OrderStatusCompleted:
			stats.Completed++
		case enum.OrderStatusCancelled:
			stats.Cancelled++
		}
		if o.BillDetails.PaymentStatus == enum.PaymentStatusPaid {
			stats.Paid++
			stats.Revenue = stats.Revenue.Add(o.BillDetails.GrandTotal)
		} else if o.BillDetails.PaymentStatus == enum.PaymentStatusPending {
			stats.Pending++
		}

		if filter.Status != "" && o.OrderStatus != filter.Status {
			continue
		}
		if filter.TableID != "" && o.TableID != filter.TableID {
			continue
		}
		orders = append(orders, o)
	}
	return &OrderList{Orders: orders, Stats: stats, UpdatedAt: doc.UpdatedAt}, nil
}

// Get returns one order with its bill's payment state.
func (s *OrderService) Get(ctx context.Context, hotelID, orderID string) (model.Order, error) {
	doc, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return model.Order{}, err
	}
	i := findOrder(doc.Items, orderID)
	if i < 0 {
		return model.Order{}, apperr.NotFound("order %s not found", orderID)
	}
	bills, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return model.Order{}, err
	}
	orders := []model.Order{doc.Items[i]}
	overlayBills(orders, bills.Items)
	return orders[0], nil
}

type UpdateOrderStatusRequest struct {
	OrderStatus string
	// CompletedAt is stored as given; the caller's clock is trusted.
	CompletedAt *time.Time
	Version     *int64
}

// OrderResult is an order after a write.
type OrderResult struct {
	Order     model.Order
	UpdatedAt time.Time
}

// UpdateStatus moves the order to a new status and keeps isActive in step.
func (s *OrderService) UpdateStatus(ctx context.Context, hotelID, orderID string, req UpdateOrderStatusRequest) (*OrderResult, error) {
	if !enum.IsOrderStatus(req.OrderStatus) {
		return nil, apperr.Validation("invalid orderStatus %q", req.OrderStatus)
	}

	var (
		order     model.Order
		completed bool
	)
	doc, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		completed = false
		i := findOrder(doc.Items, orderID)
		if i < 0 {
			return apperr.NotFound("order %s not found", orderID)
		}
		o := doc.Items[i]
		if err := checkVersion(req.Version, o.Version, "order "+orderID); err != nil {
			return err
		}
		if err := validateOrderTransition(o.OrderStatus, req.OrderStatus, s.cfg.StrictOrderTransitions); err != nil {
			return err
		}
		if o.OrderStatus == req.OrderStatus && req.CompletedAt == nil {
			order = o
			return store.ErrSkipSave
		}

		completed = o.OrderStatus != enum.OrderStatusCompleted && req.OrderStatus == enum.OrderStatusCompleted
		o.OrderStatus = req.OrderStatus
		o.IsActive = req.OrderStatus == enum.OrderStatusOngoing

		switch {
		case req.OrderStatus != enum.OrderStatusCompleted:
			o.OrderTime.CompletedAt = nil
		case req.CompletedAt != nil:
			at := *req.CompletedAt
			o.OrderTime.CompletedAt = &at
		case completed && s.cfg.StampCompletedAt:
			at := s.now()
			o.OrderTime.CompletedAt = &at
		}

		o.Version++
		doc.Items[i] = o
		order = o
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	if completed && s.cfg.ReleaseTableOnOrderComplete && order.TableID != "" {
		if _, err := s.tables.SetStatus(ctx, hotelID, order.TableID, enum.TableStatusVacant); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			reqlog.Printf(ctx, "ERROR: release table %s after order %s: %v", order.TableID, orderID, err)
		}
	}

	s.publish(ctx, events.OrderUpdated, hotelID, order)
	return &OrderResult{Order: order, UpdatedAt: doc.UpdatedAt}, nil
}

type BillDetailsPatch struct {
	Subtotal   *decimal.Decimal
	Tax        *decimal.Decimal
	GrandTotal *decimal.Decimal
}

type UpdateOrderBillingRequest struct {
	PaymentStatus *string
	PaymentMethod *string
	BillDetails   *BillDetailsPatch
	Version       *int64
}

// UpdateBilling overwrites the order's own billDetails copy with the given
// fields. Nothing is recomputed and the bill is not touched.
func (s *OrderService) UpdateBilling(ctx context.Context, hotelID, orderID string, req UpdateOrderBillingRequest) (*OrderResult, error) {
	if req.PaymentStatus != nil && !enum.IsPaymentStatus(*req.PaymentStatus) {
		return nil, apperr.Validation("invalid paymentStatus %q", *req.PaymentStatus)
	}
	if req.PaymentMethod != nil && !enum.IsPaymentMethod(*req.PaymentMethod) {
		return nil, apperr.Validation("invalid paymentMethod %q", *req.PaymentMethod)
	}
	if p := req.BillDetails; p != nil {
		for name, v := range map[string]*decimal.Decimal{"subtotal": p.Subtotal, "tax": p.Tax, "grandTotal": p.GrandTotal} {
			if v != nil && v.IsNegative() {
				return nil, apperr.Validation("billDetails.%s must be >= 0", name)
			}
		}
	}

	var order model.Order
	doc, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		i := findOrder(doc.Items, orderID)
		if i < 0 {
			return apperr.NotFound("order %s not found", orderID)
		}
		o := doc.Items[i]
		if err := checkVersion(req.Version, o.Version, "order "+orderID); err != nil {
			return err
		}

		if req.PaymentStatus != nil {
			o.BillDetails.PaymentStatus = *req.PaymentStatus
		}
		if req.PaymentMethod != nil {
			method := *req.PaymentMethod
			o.BillDetails.PaymentMethod = &method
		}
		if p := req.BillDetails; p != nil {
			if p.Subtotal != nil {
				o.BillDetails.Subtotal = *p.Subtotal
			}
			if p.Tax != nil {
				o.BillDetails.Tax = *p.Tax
			}
			if p.GrandTotal != nil {
				o.BillDetails.GrandTotal = *p.GrandTotal
			}
		}
		o.Version++
		doc.Items[i] = o
		order = o
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	s.publish(ctx, events.OrderUpdated, hotelID, order)
	return &OrderResult{Order: order, UpdatedAt: doc.UpdatedAt}, nil
}

type ItemStatusResult struct {
	Order     model.Order
	Item      model.OrderItem
	UpdatedAt time.Time
}

// UpdateItemStatus advances one item through the kitchen flow. Items of an
// order that is no longer ONGOING are frozen.
func (s *OrderService) UpdateItemStatus(ctx context.Context, hotelID, orderID, itemID, status string) (*ItemStatusResult, error) {
	if !enum.IsItemStatus(status) {
		return nil, apperr.Validation("invalid item status %q", status)
	}

	var result ItemStatusResult
	doc, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		i := findOrder(doc.Items, orderID)
		if i < 0 {
			return apperr.NotFound("order %s not found", orderID)
		}
		o := doc.Items[i]
		j := store.IndexOf(o.OrderedItems, func(it model.OrderItem) bool { return it.ItemID == itemID })
		if j < 0 {
			return apperr.NotFound("item %s not found in order %s", itemID, orderID)
		}
		if o.OrderStatus != enum.OrderStatusOngoing {
			return apperr.Conflict("order %s is %s; items can no longer change", orderID, o.OrderStatus)
		}

		item := o.OrderedItems[j]
		if err := validateItemTransition(item.Status, status); err != nil {
			return err
		}
		if item.Status == status {
			result.Order, result.Item = o, item
			return store.ErrSkipSave
		}

		now := s.now()
		item.Status = status
		switch status {
		case enum.ItemStatusPreparing:
			item.StartedAt = &now
		case enum.ItemStatusReady:
			item.ReadyAt = &now
		case enum.ItemStatusServed:
			item.ServedAt = &now
		}

		items := make([]model.OrderItem, len(o.OrderedItems))
		copy(items, o.OrderedItems)
		items[j] = item
		o.OrderedItems = items
		o.Version++
		doc.Items[i] = o
		result.Order, result.Item = o, item
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	result.UpdatedAt = doc.UpdatedAt

	s.publish(ctx, events.OrderItemUpdated, hotelID, map[string]any{
		"orderId": orderID,
		"tableId": result.Order.TableID,
		"item":    result.Item,
	})
	return &result, nil
}

// KitchenTicket is one not-yet-served item with its order context.
type KitchenTicket struct {
	OrderID   string          `json:"orderId"`
	TableID   string          `json:"tableId"`
	OrderType string          `json:"orderType"`
	Notes     string          `json:"notes,omitempty"`
	PlacedAt  time.Time       `json:"placedAt"`
	Item      model.OrderItem `json:"item"`
}

// KitchenQueue lists the unserved items of ongoing orders, oldest order first.
func (s *OrderService) KitchenQueue(ctx context.Context, hotelID string) ([]KitchenTicket, error) {
	doc, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return nil, err
	}

	tickets := []KitchenTicket{}
	for _, o := range doc.Items {
		if o.OrderStatus != enum.OrderStatusOngoing {
			continue
		}
		for _, it := range o.OrderedItems {
			if it.Status == enum.ItemStatusServed {
				continue
			}
			tickets = append(tickets, KitchenTicket{
				OrderID:   o.OrderID,
				TableID:   o.TableID,
				OrderType: o.OrderType,
				Notes:     o.Notes,
				PlacedAt:  o.OrderTime.PlacedAt,
				Item:      it,
			})
		}
	}
	sort.SliceStable(tickets, func(a, b int) bool {
		return tickets[a].PlacedAt.Before(tickets[b].PlacedAt)
	})
	return tickets, nil
}

type DeleteOrderResult struct {
	Deleted   model.Order
	Remaining int
}

// Delete removes the order. Its bill is left in place.
func (s *OrderService) Delete(ctx context.Context, hotelID, orderID string) (*DeleteOrderResult, error) {
	result, err := s.remove(ctx, hotelID, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderDeleted, hotelID, result.Deleted)
	return result, nil
}

func (s *OrderService) remove(ctx context.Context, hotelID, orderID string) (*DeleteOrderResult, error) {
	var result DeleteOrderResult
	_, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		i := findOrder(doc.Items, orderID)
		if i < 0 {
			return apperr.NotFound("order %s not found", orderID)
		}
		result.Deleted = doc.Items[i]
		doc.Items = store.Remove(doc.Items, i)
		result.Remaining = len(doc.Items)
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &result, nil
}

func findOrder(orders []model.Order, orderID string) int {
	return store.IndexOf(orders, func(o model.Order) bool { return o.OrderID == orderID })
}
