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

// BillServicer defines the service methods needed by bill handlers.
// Satisfied by *service.BillService.
type BillServicer interface {
	Generate(ctx context.Context, hotelID, orderID, generatedBy string) (model.Bill, error)
	List(ctx context.Context, hotelID string) (*service.BillList, error)
	Get(ctx context.Context, hotelID, billID string) (model.Bill, error)
	UpdatePayment(ctx context.Context, hotelID, billID string, req service.UpdatePaymentRequest) (*service.BillResult, error)
	EditAmounts(ctx context.Context, hotelID, billID string, req service.EditBillRequest) (*service.BillResult, error)
	Delete(ctx context.Context, hotelID, billID string) (*service.DeleteBillResult, error)
	Resync(ctx context.Context, hotelID string) (int, error)
}

// BillHandler handles bill endpoints.
type BillHandler struct {
	svc BillServicer
}

func NewBillHandler(svc BillServicer) *BillHandler {
	return &BillHandler{svc: svc}
}

// RegisterRoutes registers bill endpoints. Expected to be mounted at /bills.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Generate)
	r.Get("/", h.List)
	r.Post("/resync", h.Resync)
	r.Get("/{billId}", h.Get)
	r.Put("/{billId}", h.Edit)
	r.Put("/{billId}/payment", h.UpdatePayment)
	r.Delete("/{billId}", h.Delete)
}

// --- Request / Response types ---

type generateBillRequest struct {
	OrderID string `json:"orderId"`
}

type updatePaymentRequest struct {
	PaymentMethod *string          `json:"paymentMethod"`
	PaymentStatus *string          `json:"paymentStatus"`
	PaidAmount    *decimal.Decimal `json:"paidAmount"`
	Discount      *decimal.Decimal `json:"discount"`
	Version       *int64           `json:"version"`
}

type editBillRequest struct {
	Subtotal *decimal.Decimal `json:"subtotal"`
	Tax      *decimal.Decimal `json:"tax"`
	Version  *int64           `json:"version"`
}

type billListResponse struct {
	Bills     []model.Bill      `json:"bills"`
	Stats     service.BillStats `json:"stats"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type billResponse struct {
	Bill            model.Bill `json:"bill"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	OrderSyncFailed bool       `json:"orderSyncFailed,omitempty"`
}

type deleteBillResponse struct {
	DeletedBill    model.Bill `json:"deletedBill"`
	RemainingBills int        `json:"remainingBills"`
}

// --- Handlers ---

// Generate handles POST /bills for orders created without an automatic bill.
func (h *BillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req generateBillRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "generate bill", err)
		return
	}
	if req.OrderID == "" {
		writeFail(w, r, http.StatusBadRequest, "orderId is required")
		return
	}

	bill, err := h.svc.Generate(r.Context(), claims.HotelID, req.OrderID, claims.Username)
	if err != nil {
		writeError(w, r, "generate bill", err)
		return
	}
	writeOK(w, http.StatusCreated, "Bill generated", map[string]model.Bill{"bill": bill})
}

// List handles GET /bills.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	list, err := h.svc.List(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "list bills", err)
		return
	}
	writeOK(w, http.StatusOK, "Bills fetched", billListResponse{
		Bills:     list.Bills,
		Stats:     list.Stats,
		UpdatedAt: list.UpdatedAt,
	})
}

// Get handles GET /bills/{billId}.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	bill, err := h.svc.Get(r.Context(), claims.HotelID, chi.URLParam(r, "billId"))
	if err != nil {
		writeError(w, r, "get bill", err)
		return
	}
	writeOK(w, http.StatusOK, "Bill fetched", map[string]model.Bill{"bill": bill})
}

// UpdatePayment handles PUT /bills/{billId}/payment.
func (h *BillHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req updatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "update payment", err)
		return
	}

	result, err := h.svc.UpdatePayment(r.Context(), claims.HotelID, chi.URLParam(r, "billId"), service.UpdatePaymentRequest{
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: req.PaymentStatus,
		PaidAmount:    req.PaidAmount,
		Discount:      req.Discount,
		Version:       req.Version,
	})
	if err != nil {
		writeError(w, r, "update payment", err)
		return
	}
	writeBillResult(w, "Payment updated", result)
}

// Edit handles PUT /bills/{billId}: subtotal/tax corrections before payment.
func (h *BillHandler) Edit(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req editBillRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "edit bill", err)
		return
	}

	result, err := h.svc.EditAmounts(r.Context(), claims.HotelID, chi.URLParam(r, "billId"), service.EditBillRequest{
		Subtotal: req.Subtotal,
		Tax:      req.Tax,
		Version:  req.Version,
	})
	if err != nil {
		writeError(w, r, "edit bill", err)
		return
	}
	writeBillResult(w, "Bill updated", result)
}

// Delete handles DELETE /bills/{billId}. The order is not touched.
func (h *BillHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Delete(r.Context(), claims.HotelID, chi.URLParam(r, "billId"))
	if err != nil {
		writeError(w, r, "delete bill", err)
		return
	}
	writeOK(w, http.StatusOK, "Bill deleted", deleteBillResponse{
		DeletedBill:    result.Deleted,
		RemainingBills: result.Remaining,
	})
}

// Resync handles POST /bills/resync: copies every bill onto its order.
func (h *BillHandler) Resync(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	n, err := h.svc.Resync(r.Context(), claims.HotelID)
	if err != nil {
		writeError(w, r, "resync bills", err)
		return
	}
	writeOK(w, http.StatusOK, "Orders resynced", map[string]int{"resynced": n})
}

func writeBillResult(w http.ResponseWriter, message string, result *service.BillResult) {
	if result.SyncFailed {
		message += "; order copy could not be refreshed"
	}
	writeOK(w, http.StatusOK, message, billResponse{
		Bill:            result.Bill,
		UpdatedAt:       result.UpdatedAt,
		OrderSyncFailed: result.SyncFailed,
	})
}
