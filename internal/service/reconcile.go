package service

import (
	"context"

	"github.com/hotelops/api/internal/apperr"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/store"
)

// billDetailsFrom projects a bill's payment state onto the order shape.
func billDetailsFrom(pd model.PaymentDetails) model.BillDetails {
	var method *string
	if pd.PaymentMethod != nil {
		m := *pd.PaymentMethod
		method = &m
	}
	return model.BillDetails{
		Subtotal:      pd.Subtotal,
		Tax:           pd.Tax,
		GrandTotal:    pd.GrandTotal,
		PaymentMethod: method,
		PaymentStatus: pd.PaymentStatus,
	}
}

// overlayBills replaces each order's billDetails with its bill's payment
// state, in place. Orders without a bill keep their own copy.
func overlayBills(orders []model.Order, bills []model.Bill) {
	byOrder := make(map[string]model.Bill, len(bills))
	for _, b := range bills {
		byOrder[b.OrderID] = b
	}
	for i := range orders {
		b, ok := byOrder[orders[i].OrderID]
		if !ok {
			continue
		}
		orders[i].BillDetails = billDetailsFrom(b.PaymentDetails)
		if orders[i].BillID == "" {
			orders[i].BillID = b.BillID
		}
	}
}

// syncOrder links bill to its order and, when enabled, refreshes the
// order's billDetails from it. Returns NotFound when the order is gone.
func (s *BillService) syncOrder(ctx context.Context, hotelID string, bill model.Bill) error {
	_, err := store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		i := findOrder(doc.Items, bill.OrderID)
		if i < 0 {
			return apperr.NotFound("order %s not found", bill.OrderID)
		}
		o := &doc.Items[i]
		details := billDetailsFrom(bill.PaymentDetails)
		if o.BillID == bill.BillID && (!s.cfg.SyncOrderFromBill || sameBillDetails(o.BillDetails, details)) {
			return store.ErrSkipSave
		}
		o.BillID = bill.BillID
		if s.cfg.SyncOrderFromBill {
			o.BillDetails = details
		}
		o.Version++
		return nil
	})
	return storeErr(err)
}

// Drift kinds.
const (
	DriftMismatch    = "mismatch"
	DriftOrphanBill  = "orphan_bill"
	DriftUnbilled    = "unbilled_order"
	DriftMissingBill = "missing_bill"
)

// Drift describes one order/bill pair whose stored copies disagree.
type Drift struct {
	Kind    string   `json:"kind"`
	OrderID string   `json:"orderId,omitempty"`
	BillID  string   `json:"billId,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// DriftReport compares every order's stored billDetails with its bill.
func (s *BillService) DriftReport(ctx context.Context, hotelID string) ([]Drift, error) {
	orders, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return nil, err
	}
	bills, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]model.Bill, len(bills.Items))
	for _, b := range bills.Items {
		byOrder[b.OrderID] = b
	}

	drifts := []Drift{}
	seen := make(map[string]bool, len(orders.Items))
	for _, o := range orders.Items {
		seen[o.OrderID] = true
		b, ok := byOrder[o.OrderID]
		switch {
		case !ok && o.BillID != "":
			drifts = append(drifts, Drift{Kind: DriftMissingBill, OrderID: o.OrderID, BillID: o.BillID})
		case !ok:
			drifts = append(drifts, Drift{Kind: DriftUnbilled, OrderID: o.OrderID})
		default:
			if fields := diffBillDetails(o.BillDetails, billDetailsFrom(b.PaymentDetails)); len(fields) > 0 {
				drifts = append(drifts, Drift{Kind: DriftMismatch, OrderID: o.OrderID, BillID: b.BillID, Fields: fields})
			}
		}
	}
	for _, b := range bills.Items {
		if !seen[b.OrderID] {
			drifts = append(drifts, Drift{Kind: DriftOrphanBill, OrderID: b.OrderID, BillID: b.BillID})
		}
	}
	return drifts, nil
}

// Resync copies every bill's payment state onto its order and returns the
// number of orders changed.
func (s *BillService) Resync(ctx context.Context, hotelID string) (int, error) {
	bills, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return 0, err
	}

	var changed int
	_, err = store.Update(ctx, s.backend, hotelID, store.Orders, func(doc *store.Document[model.Order]) error {
		changed = 0
		for _, b := range bills.Items {
			i := findOrder(doc.Items, b.OrderID)
			if i < 0 {
				continue
			}
			o := &doc.Items[i]
			details := billDetailsFrom(b.PaymentDetails)
			if o.BillID == b.BillID && sameBillDetails(o.BillDetails, details) {
				continue
			}
			o.BillID = b.BillID
			o.BillDetails = details
			o.Version++
			changed++
		}
		if changed == 0 {
			return store.ErrSkipSave
		}
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return changed, nil
}

func sameBillDetails(a, b model.BillDetails) bool {
	return len(diffBillDetails(a, b)) == 0
}

func diffBillDetails(a, b model.BillDetails) []string {
	var fields []string
	if !a.Subtotal.Equal(b.Subtotal) {
		fields = append(fields, "subtotal")
	}
	if !a.Tax.Equal(b.Tax) {
		fields = append(fields, "tax")
	}
	if !a.GrandTotal.Equal(b.GrandTotal) {
		fields = append(fields, "grandTotal")
	}
	if a.PaymentStatus != b.PaymentStatus {
		fields = append(fields, "paymentStatus")
	}
	if (a.PaymentMethod == nil) != (b.PaymentMethod == nil) ||
		(a.PaymentMethod != nil && *a.PaymentMethod != *b.PaymentMethod) {
		fields = append(fields, "paymentMethod")
	}
	return fields
}
