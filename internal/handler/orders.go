package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Create(ctx context.Context, hotelID string, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	List(ctx context.Context, hotelID string, filter service.OrderFilter) (*service.OrderList, error)
	Get(ctx context.Context, hotelID, orderID string) (model.Order, error)
	UpdateStatus(ctx context.Context, hotelID, orderID string, req service.UpdateOrderStatusRequest) (*service.OrderResult, error)
	UpdateBilling(ctx context.Context, hotelID, orderID string, req service.UpdateOrderBillingRequest) (*service.OrderResult, error)
	UpdateItemStatus(ctx context.Context, hotelID, orderID, itemID, status string) (*service.ItemStatusResult, error)
	KitchenQueue(ctx context.Context, hotelID string) ([]service.KitchenTicket, error)
	Delete(ctx context.Context, hotelID, orderID string) (*service.DeleteOrderResult, error)
}

// OrderHandler handles order and kitchen endpoints.
type OrderHandler struct {
	svc OrderServicer
}

func NewOrderHandler(svc OrderServicer) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterReadRoutes registers the order endpoints every role may call.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{orderId}", h.Get)
	r.Put("/{orderId}/items/{itemId}/status", h.UpdateItemStatus)
}

// RegisterWriteRoutes registers the front-desk order endpoints.
func (h *OrderHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{orderId}", h.UpdateStatus)
	r.Put("/{orderId}/billing", h.UpdateBilling)
	r.Delete("/{orderId}", h.Delete)
}

// --- Request / Response types ---

type createOrderRequest struct {
	TableID   string                   `json:"tableId"`
	OrderType string                   `json:"orderType"`
	Notes     string                   `json:"notes"`
	Items     []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	MenuItemID string           `json:"menuItemId"`
	Name       string           `json:"name"`
	Quantity   *int32           `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unitPrice"`
}

type updateOrderStatusRequest struct {
	OrderStatus string     `json:"orderStatus"`
	CompletedAt *time.Time `json:"completedAt"`
	Version     *int64     `json:"version"`
}

type billDetailsPatch struct {
	Subtotal   *decimal.Decimal `json:"subtotal"`
	Tax        *decimal.Decimal `json:"tax"`
	GrandTotal *decimal.Decimal `json:"grandTotal"`
}

type updateOrderBillingRequest struct {
	PaymentStatus *string           `json:"paymentStatus"`
	PaymentMethod *string           `json:"paymentMethod"`
	BillDetails   *billDetailsPatch `json:"billDetails"`
	Version       *int64            `json:"version"`
}

type updateItemStatusRequest struct {
	Status string `json:"status"`
}

type createOrderResponse struct {
	Order       model.Order `json:"order"`
	OrderID     string      `json:"orderId"`
	TotalOrders int         `json:"totalOrders"`
}

type orderListResponse struct {
	Orders    []model.Order      `json:"orders"`
	Stats     service.OrderStats `json:"stats"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type orderResponse struct {
	Order     model.Order `json:"order"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type itemStatusResponse struct {
	Order     model.Order     `json:"order"`
	Item      model.OrderItem `json:"item"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type deleteOrderResponse struct {
	DeletedOrder    model.Order `json:"deletedOrder"`
	RemainingOrders int         `json:"remainingOrders"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "create order", err)
		return
	}

	items := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.CreateOrderItemRequest{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		}
	}

	result, err := h.svc.Create(r.Context(), claims.HotelID, service.CreateOrderRequest{
		TableID:        req.TableID,
		OrderType:      req.OrderType,
		Notes:          req.Notes,
		WaiterAssigned: claims.Username,
		Items:          items,
	})
	if err != nil {
		writeError(w, r, "create order", err)
		return
	}

	writeOK(w, http.StatusCreated, "Order created", createOrderResponse{
		Order:       result.Order,
		OrderID:     result.Order.OrderID,
		TotalOrders: result.TotalOrders,
	})
}

// List handles GET /orders?status=&tableId=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	list, err := h.svc.List(r.Context(), claims.HotelID, service.OrderFilter{
		Status:  r.URL.Query().Get("status"),
		TableID: r.URL.Query().Get("tableId"),
	})
	if err != nil {
		writeError(w, r, "list orders", err)
		return
	}

	writeOK(w, http.StatusOK, "Orders fetched", orderListResponse{
		Orders:    list.Orders,
		Stats:     list.Stats,
		UpdatedAt: list.UpdatedAt,
	})
}

// Get handles GET /orders/{orderId}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Get(r.Context(), claims.HotelID, chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, "get order", err)
		return
	}
	writeOK(w, http.StatusOK, "Order fetched", map[string]model.Order{"order": order})
}

// UpdateStatus handles PUT /orders/{orderId}.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update order status", err)
		return
	}

	result, err := h.svc.UpdateStatus(r.Context(), claims.HotelID, chi.URLParam(r, "orderId"), service.UpdateOrderStatusRequest{
		OrderStatus: req.OrderStatus,
		CompletedAt: req.CompletedAt,
		Version:     req.Version,
	})
	if err != nil {
		writeError(w, r, "update order status", err)
		return
	}
	writeOK(w, http.StatusOK, "Order status updated", orderResponse{Order: result.Order, UpdatedAt: result.UpdatedAt})
}

// UpdateBilling handles PUT /orders/{orderId}/billing.
func (h *OrderHandler) UpdateBilling(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req updateOrderBillingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update order billing", err)
		return
	}

	svcReq := service.UpdateOrderBillingRequest{
		PaymentStatus: req.PaymentStatus,
		PaymentMethod: req.PaymentMethod,
		Version:       req.Version,
	}
	if req.BillDetails != nil {
		svcReq.BillDetails = &service.BillDetailsPatch{
			Subtotal:   req.BillDetails.Subtotal,
			Tax:        req.BillDetails.Tax,
			GrandTotal: req.BillDetails.GrandTotal,
		}
	}

	result, err := h.svc.UpdateBilling(r.Context(), claims.HotelID, chi.URLParam(r, "orderId"), svcReq)
	if err != nil {
		writeError(w, r, "update order billing", err)
		return
	}
	writeOK(w, http.StatusOK, "Order billing updated", orderResponse{Order: result.Order, UpdatedAt: result.UpdatedAt})
}

// UpdateItemStatus handles PUT /orders/{orderId}/items/{itemId}/status.
func (h *OrderHandler) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req updateItemStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update item status", err)
		return
	}

	result, err := h.svc.UpdateItemStatus(r.Context(), claims.HotelID,
		chi.URLParam(r, "orderId"), chi.URLParam(r, "itemId"), req.Status)
	if err != nil {
		writeError(w, r, "update item status", err)
		return
	}
	writeOK(w, http.StatusOK, "Item status updated", itemStatusResponse{
		Order:     result.Order,
		Item:      result.Item,
		UpdatedAt: result.UpdatedAt,
	})
}

// KitchenQueue handles GET /kitchen/queue.
func (h *OrderHandler) KitchenQueue(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	tickets, err := h.svc.KitchenQueue(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "kitchen queue", err)
		return
	}
	writeOK(w, http.StatusOK, "Kitchen queue fetched", map[string][]service.KitchenTicket{"tickets": tickets})
}

// Delete handles DELETE /orders/{orderId}. The order's bill is kept.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Delete(r.Context(), claims.HotelID, chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, "delete order", err)
		return
	}
	writeOK(w, http.StatusOK, "Order deleted", deleteOrderResponse{
		DeletedOrder:    result.Deleted,
		RemainingOrders: result.Remaining,
	})
}
