package service

import (
	"context"
	"errors"
	"time"

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

// BillService owns payment state. After every bill write the linked order's
// billDetails copy is refreshed from the bill.
type BillService struct {
	base
	cfg      config.BillingConfig
	settings *SettingsService
}

func NewBillService(backend store.Backend, cfg config.BillingConfig, settings *SettingsService, pub events.Publisher) *BillService {
	return &BillService{base: newBase(backend, pub), cfg: cfg, settings: settings}
}

// Generate creates the bill for an order and links it. Service charge comes
// from the hotel settings; subtotal and tax are taken from the order.
func (s *BillService) Generate(ctx context.Context, hotelID, orderID, generatedBy string) (model.Bill, error) {
	orders, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return model.Bill{}, err
	}
	i := findOrder(orders.Items, orderID)
	if i < 0 {
		return model.Bill{}, apperr.NotFound("order %s not found", orderID)
	}
	order := orders.Items[i]
	if order.OrderStatus == enum.OrderStatusCancelled {
		return model.Bill{}, apperr.Conflict("order %s is cancelled", orderID)
	}

	settings, err := s.settings.Get(ctx, hotelID)
	if err != nil {
		return model.Bill{}, err
	}

	subtotal := order.BillDetails.Subtotal
	tax := order.BillDetails.Tax
	serviceCharge := pricing.Percent(subtotal, settings.TaxConfig.ServiceChargePercentage)

	items := make([]model.BillItem, len(order.OrderedItems))
	for j, it := range order.OrderedItems {
		items[j] = model.BillItem{
			ItemID:     it.ItemID,
			ItemName:   it.ItemName,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			TotalPrice: it.TotalPrice,
		}
	}

	var bill model.Bill
	_, err = store.Update(ctx, s.backend, hotelID, store.Bills, func(doc *store.Document[model.Bill]) error {
		if findBillForOrder(doc.Items, orderID) >= 0 {
			return apperr.Conflict("order %s already has a bill", orderID)
		}
		id, err := newElementID("BILL_", func(id string) bool { return findBill(doc.Items, id) >= 0 })
		if err != nil {
			return err
		}
		bill = model.Bill{
			BillID:  id,
			OrderID: orderID,
			TableID: order.TableID,
			Items:   items,
			PaymentDetails: model.PaymentDetails{
				Subtotal:      subtotal,
				Tax:           tax,
				ServiceCharge: serviceCharge,
				Discount:      decimal.Zero,
				GrandTotal:    pricing.GrandTotal(subtotal, tax, serviceCharge, decimal.Zero),
				PaymentMethod: order.BillDetails.PaymentMethod,
				PaymentStatus: enum.PaymentStatusPending,
			},
			BillGeneratedAt: s.now(),
			GeneratedBy:     generatedBy,
			Version:         1,
		}
		doc.Items = append(doc.Items, bill)
		return nil
	})
	if err != nil {
		return model.Bill{}, storeErr(err)
	}

	// Without the link the bill would be an orphan; take it back out.
	if err := s.syncOrder(ctx, hotelID, bill); err != nil {
		reqlog.Printf(ctx, "ERROR: link bill %s to order %s: %v", bill.BillID, orderID, err)
		if _, cerr := s.remove(ctx, hotelID, bill.BillID); cerr != nil {
			reqlog.Printf(ctx, "ERROR: compensate bill %s: %v", bill.BillID, cerr)
		}
		return model.Bill{}, err
	}

	s.publish(ctx, events.BillCreated, hotelID, bill)
	return bill, nil
}

type BillStats struct {
	Total       int             `json:"total"`
	Paid        int             `json:"paid"`
	Pending     int             `json:"pending"`
	Cancelled   int             `json:"cancelled"`
	Revenue     decimal.Decimal `json:"revenue"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type BillList struct {
	Bills     []model.Bill
	Stats     BillStats
	UpdatedAt time.Time
}

func (s *BillService) List(ctx context.Context, hotelID string) (*BillList, error) {
	doc, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return nil, err
	}

	stats := BillStats{Total: len(doc.Items), Revenue: decimal.Zero, Outstanding: decimal.Zero}
	for _, b := range doc.Items {
		switch b.PaymentDetails.PaymentStatus {
		case enum.PaymentStatusPaid:
			stats.Paid++
			stats.Revenue = stats.Revenue.Add(b.PaymentDetails.GrandTotal)
		case enum.PaymentStatusCancelled:
			stats.Cancelled++
		default:
			stats.Pending++
			stats.Outstanding = stats.Outstanding.Add(b.PaymentDetails.GrandTotal)
		}
	}
	return &BillList{Bills: doc.Items, Stats: stats, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *BillService) Get(ctx context.Context, hotelID, billID string) (model.Bill, error) {
	doc, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return model.Bill{}, err
	}
	i := findBill(doc.Items, billID)
	if i < 0 {
		return model.Bill{}, apperr.NotFound("bill %s not found", billID)
	}
	return doc.Items[i], nil
}

type UpdatePaymentRequest struct {
	PaymentMethod *string
	PaymentStatus *string
	PaidAmount    *decimal.Decimal
	Discount      *decimal.Decimal
	Version       *int64
}

// BillResult is a bill after a write. SyncFailed is set when the linked
// order could not be refreshed; the bill write itself stands.
type BillResult struct {
	Bill       model.Bill
	UpdatedAt  time.Time
	SyncFailed bool
}

// UpdatePayment applies a payment update. A discount recomputes grandTotal
// with service charge; PAID stamps paidAt and settles paidAmount and change.
// Every call overwrites: paying twice re-stamps paidAt with the same amounts.
func (s *BillService) UpdatePayment(ctx context.Context, hotelID, billID string, req UpdatePaymentRequest) (*BillResult, error) {
	if req.PaymentMethod != nil && !enum.IsPaymentMethod(*req.PaymentMethod) {
		return nil, apperr.Validation("invalid paymentMethod %q", *req.PaymentMethod)
	}
	if req.PaymentStatus != nil && !enum.IsPaymentStatus(*req.PaymentStatus) {
		return nil, apperr.Validation("invalid paymentStatus %q", *req.PaymentStatus)
	}
	if req.PaidAmount != nil && req.PaidAmount.IsNegative() {
		return nil, apperr.Validation("paidAmount must be >= 0")
	}

	var bill model.Bill
	doc, err := store.Update(ctx, s.backend, hotelID, store.Bills, func(doc *store.Document[model.Bill]) error {
		i := findBill(doc.Items, billID)
		if i < 0 {
			return apperr.NotFound("bill %s not found", billID)
		}
		b := doc.Items[i]
		if err := checkVersion(req.Version, b.Version, "bill "+billID); err != nil {
			return err
		}

		pd := &b.PaymentDetails
		if req.Discount != nil {
			pd.Discount = pricing.ClampDiscount(*req.Discount)
			pd.GrandTotal = pricing.GrandTotal(pd.Subtotal, pd.Tax, pd.ServiceCharge, pd.Discount)
		}
		if req.PaymentMethod != nil {
			method := *req.PaymentMethod
			pd.PaymentMethod = &method
		}
		if req.PaymentStatus != nil {
			pd.PaymentStatus = *req.PaymentStatus
			if pd.PaymentStatus == enum.PaymentStatusPaid {
				paidAt := s.now()
				amount, change := pricing.Settle(req.PaidAmount, pd.GrandTotal)
				pd.PaidAt = &paidAt
				pd.PaidAmount = &amount
				pd.ChangeAmount = &change
			}
		}
		b.Version++
		doc.Items[i] = b
		bill = b
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	return &BillResult{Bill: bill, UpdatedAt: doc.UpdatedAt, SyncFailed: !s.afterWrite(ctx, hotelID, bill)}, nil
}

type EditBillRequest struct {
	Subtotal *decimal.Decimal
	Tax      *decimal.Decimal
	Version  *int64
}

// EditAmounts lets staff correct subtotal or tax before payment. grandTotal
// is recomputed as subtotal + tax unless edits keep adjustments, in which
// case service charge and discount still apply.
func (s *BillService) EditAmounts(ctx context.Context, hotelID, billID string, req EditBillRequest) (*BillResult, error) {
	if req.Subtotal == nil && req.Tax == nil {
		return nil, apperr.Validation("subtotal or tax is required")
	}
	if (req.Subtotal != nil && req.Subtotal.IsNegative()) || (req.Tax != nil && req.Tax.IsNegative()) {
		return nil, apperr.Validation("amounts must be >= 0")
	}

	var bill model.Bill
	doc, err := store.Update(ctx, s.backend, hotelID, store.Bills, func(doc *store.Document[model.Bill]) error {
		i := findBill(doc.Items, billID)
		if i < 0 {
			return apperr.NotFound("bill %s not found", billID)
		}
		b := doc.Items[i]
		if err := checkVersion(req.Version, b.Version, "bill "+billID); err != nil {
			return err
		}
		if b.PaymentDetails.PaymentStatus == enum.PaymentStatusPaid {
			return apperr.Conflict("bill %s is already paid", billID)
		}

		pd := &b.PaymentDetails
		if req.Subtotal != nil {
			pd.Subtotal = *req.Subtotal
		}
		if req.Tax != nil {
			pd.Tax = *req.Tax
		}
		if !s.cfg.BillEditKeepsAdjustments {
			pd.ServiceCharge = decimal.Zero
			pd.Discount = decimal.Zero
		}
		pd.GrandTotal = pricing.RecomputeEdited(pd.Subtotal, pd.Tax, pd.ServiceCharge, pd.Discount, s.cfg.BillEditKeepsAdjustments)
		b.Version++
		doc.Items[i] = b
		bill = b
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	return &BillResult{Bill: bill, UpdatedAt: doc.UpdatedAt, SyncFailed: !s.afterWrite(ctx, hotelID, bill)}, nil
}

type DeleteBillResult struct {
	Deleted   model.Bill
	Remaining int
}

// Delete removes the bill. The order keeps its billId and billDetails.
func (s *BillService) Delete(ctx context.Context, hotelID, billID string) (*DeleteBillResult, error) {
	result, err := s.remove(ctx, hotelID, billID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BillDeleted, hotelID, result.Deleted)
	return result, nil
}

func (s *BillService) remove(ctx context.Context, hotelID, billID string) (*DeleteBillResult, error) {
	var result DeleteBillResult
	_, err := store.Update(ctx, s.backend, hotelID, store.Bills, func(doc *store.Document[model.Bill]) error {
		i := findBill(doc.Items, billID)
		if i < 0 {
			return apperr.NotFound("bill %s not found", billID)
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

// afterWrite syncs the order copy and publishes the bill. It returns false
// only when a sync was attempted and failed.
func (s *BillService) afterWrite(ctx context.Context, hotelID string, bill model.Bill) bool {
	synced := true
	if s.cfg.SyncOrderFromBill {
		err := s.syncOrder(ctx, hotelID, bill)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			// Order was deleted; bills outlive their orders.
		case err != nil:
			synced = false
			reqlog.Printf(ctx, "ERROR: sync order %s from bill %s: %v", bill.OrderID, bill.BillID, err)
		}
	}
	s.publish(ctx, events.BillUpdated, hotelID, bill)
	return synced
}

func findBill(items []model.Bill, billID string) int {
	return store.IndexOf(items, func(b model.Bill) bool { return b.BillID == billID })
}

func findBillForOrder(items []model.Bill, orderID string) int {
	return store.IndexOf(items, func(b model.Bill) bool { return b.OrderID == orderID })
}
