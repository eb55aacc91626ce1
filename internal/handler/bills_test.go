package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/handler"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/service"
	"github.com/shopspring/decimal"
)

// --- Mock BillServicer ---

type mockBillService struct {
	generateFn      func(ctx context.Context, hotelID, orderID, generatedBy string) (model.Bill, error)
	listFn          func(ctx context.Context, hotelID string) (*service.BillList, error)
	getFn           func(ctx context.Context, hotelID, billID string) (model.Bill, error)
	updatePaymentFn func(ctx context.Context, hotelID, billID string, req service.UpdatePaymentRequest) (*service.BillResult, error)
	editAmountsFn   func(ctx context.Context, hotelID, billID string, req service.EditBillRequest) (*service.BillResult, error)
	deleteFn        func(ctx context.Context, hotelID, billID string) (*service.DeleteBillResult, error)
	resyncFn        func(ctx context.Context, hotelID string) (int, error)
}

var errBillNotFound = apperr.NotFound("bill not found")

func (m *mockBillService) Generate(ctx context.Context, hotelID, orderID, generatedBy string) (model.Bill, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, hotelID, orderID, generatedBy)
	}
	return model.Bill{}, errors.New("not implemented")
}

func (m *mockBillService) List(ctx context.Context, hotelID string) (*service.BillList, error) {
	if m.listFn != nil {
		return m.listFn(ctx, hotelID)
	}
	return &service.BillList{Bills: []model.Bill{}}, nil
}

func (m *mockBillService) Get(ctx context.Context, hotelID, billID string) (model.Bill, error) {
	if m.getFn != nil {
		return m.getFn(ctx, hotelID, billID)
	}
	return model.Bill{}, errBillNotFound
}

func (m *mockBillService) UpdatePayment(ctx context.Context, hotelID, billID string, req service.UpdatePaymentRequest) (*service.BillResult, error) {
	if m.updatePaymentFn != nil {
		return m.updatePaymentFn(ctx, hotelID, billID, req)
	}
	return nil, errBillNotFound
}

func (m *mockBillService) EditAmounts(ctx context.Context, hotelID, billID string, req service.EditBillRequest) (*service.BillResult, error) {
	if m.editAmountsFn != nil {
		return m.editAmountsFn(ctx, hotelID, billID, req)
	}
	return nil, errBillNotFound
}

func (m *mockBillService) Delete(ctx context.Context, hotelID, billID string) (*service.DeleteBillResult, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, hotelID, billID)
	}
	return nil, errBillNotFound
}

func (m *mockBillService) Resync(ctx context.Context, hotelID string) (int, error) {
	if m.resyncFn != nil {
		return m.resyncFn(ctx, hotelID)
	}
	return 0, nil
}

func newBillRouter(svc handler.BillServicer) chi.Router {
	r := newAuthedRouter()
	r.Route("/bills", handler.NewBillHandler(svc).RegisterRoutes)
	return r
}

func scenarioBill() model.Bill {
	return model.Bill{
		BillID:  "BILL_1",
		OrderID: "ORD_1",
		TableID: "T5",
		PaymentDetails: model.PaymentDetails{
			Subtotal:      decimal.NewFromInt(250),
			Tax:           decimal.RequireFromString("12.5"),
			GrandTotal:    decimal.RequireFromString("262.5"),
			PaymentStatus: enum.PaymentStatusPending,
		},
	}
}

func TestGenerateBill(t *testing.T) {
	var gotOrder, gotBy string
	svc := &mockBillService{
		generateFn: func(_ context.Context, _, orderID, generatedBy string) (model.Bill, error) {
			gotOrder, gotBy = orderID, generatedBy
			return scenarioBill(), nil
		},
	}

	rr := doRequest(t, newBillRouter(svc), http.MethodPost, "/bills", `{"orderId":"ORD_1"}`)
	assertStatus(t, rr, http.StatusCreated)
	if gotOrder != "ORD_1" || gotBy != "frontdesk" {
		t.Errorf("generate: order=%s by=%s", gotOrder, gotBy)
	}
}

func TestGenerateBill_Errors(t *testing.T) {
	t.Run("missing order id", func(t *testing.T) {
		rr := doRequest(t, newBillRouter(&mockBillService{}), http.MethodPost, "/bills", `{}`)
		assertStatus(t, rr, http.StatusBadRequest)
	})
	t.Run("already billed", func(t *testing.T) {
		svc := &mockBillService{
			generateFn: func(context.Context, string, string, string) (model.Bill, error) {
				return model.Bill{}, apperr.Conflict("order ORD_1 already has bill BILL_1")
			},
		}
		rr := doRequest(t, newBillRouter(svc), http.MethodPost, "/bills", `{"orderId":"ORD_1"}`)
		assertStatus(t, rr, http.StatusConflict)
	})
}

func TestUpdatePayment(t *testing.T) {
	var got service.UpdatePaymentRequest
	svc := &mockBillService{
		updatePaymentFn: func(_ context.Context, _, _ string, req service.UpdatePaymentRequest) (*service.BillResult, error) {
			got = req
			b := scenarioBill()
			b.PaymentDetails.PaymentStatus = enum.PaymentStatusPaid
			return &service.BillResult{Bill: b}, nil
		},
	}

	rr := doRequest(t, newBillRouter(svc), http.MethodPut, "/bills/BILL_1/payment",
		`{"paymentMethod":"CASH","paymentStatus":"PAID","paidAmount":"300","discount":20}`)
	assertStatus(t, rr, http.StatusOK)

	if got.PaymentStatus == nil || *got.PaymentStatus != enum.PaymentStatusPaid {
		t.Errorf("paymentStatus: %v", got.PaymentStatus)
	}
	if got.Discount == nil || !got.Discount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("discount: %v", got.Discount)
	}
	if got.PaidAmount == nil || !got.PaidAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("paidAmount: %v", got.PaidAmount)
	}

	env := decodeEnvelope(t, rr)
	if env.Message != "Payment updated" {
		t.Errorf("message: %q", env.Message)
	}
	if strings.Contains(string(env.Data), "orderSyncFailed") {
		t.Error("orderSyncFailed should be omitted when the sync succeeded")
	}
}

func TestUpdatePayment_ReportsFailedSync(t *testing.T) {
	svc := &mockBillService{
		updatePaymentFn: func(context.Context, string, string, service.UpdatePaymentRequest) (*service.BillResult, error) {
			return &service.BillResult{Bill: scenarioBill(), SyncFailed: true}, nil
		},
	}

	rr := doRequest(t, newBillRouter(svc), http.MethodPut, "/bills/BILL_1/payment", `{"paymentStatus":"PAID"}`)
	assertStatus(t, rr, http.StatusOK)

	env := decodeEnvelope(t, rr)
	var data struct {
		OrderSyncFailed bool `json:"orderSyncFailed"`
	}
	decodeData(t, env, &data)
	if !data.OrderSyncFailed || !strings.Contains(env.Message, "could not be refreshed") {
		t.Errorf("envelope: %+v", env)
	}
}

func TestEditBill_Validation(t *testing.T) {
	svc := &mockBillService{
		editAmountsFn: func(context.Context, string, string, service.EditBillRequest) (*service.BillResult, error) {
			return nil, apperr.Validation("paid bills cannot be edited")
		},
	}
	rr := doRequest(t, newBillRouter(svc), http.MethodPut, "/bills/BILL_1", `{"subtotal":"300"}`)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestDeleteBill(t *testing.T) {
	svc := &mockBillService{
		deleteFn: func(_ context.Context, _, billID string) (*service.DeleteBillResult, error) {
			if billID != "BILL_1" {
				return nil, errBillNotFound
			}
			return &service.DeleteBillResult{Deleted: scenarioBill(), Remaining: 0}, nil
		},
	}
	r := newBillRouter(svc)

	rr := doRequest(t, r, http.MethodDelete, "/bills/BILL_1", nil)
	assertStatus(t, rr, http.StatusOK)
	var data struct {
		DeletedBill    model.Bill `json:"deletedBill"`
		RemainingBills int        `json:"remainingBills"`
	}
	decodeData(t, decodeEnvelope(t, rr), &data)
	if data.DeletedBill.BillID != "BILL_1" || data.RemainingBills != 0 {
		t.Errorf("data: %+v", data)
	}

	rr = doRequest(t, r, http.MethodDelete, "/bills/BILL_9", nil)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestResync(t *testing.T) {
	svc := &mockBillService{
		resyncFn: func(context.Context, string) (int, error) { return 4, nil },
	}
	rr := doRequest(t, newBillRouter(svc), http.MethodPost, "/bills/resync", nil)
	assertStatus(t, rr, http.StatusOK)

	var data struct {
		Resynced int `json:"resynced"`
	}
	decodeData(t, decodeEnvelope(t, rr), &data)
	if data.Resynced != 4 {
		t.Errorf("resynced: got %d", data.Resynced)
	}
}
