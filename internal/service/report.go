package service

import (
	"context"
	"sort"
	"time"

	"github.com/hotelops/api/internal/enum"
	"github.com/hotelops/api/internal/model"
	"github.com/hotelops/api/internal/store"
	"github.com/shopspring/decimal"
)

const topItemsLimit = 10

type ReportService struct {
	base
	bills *BillService
}

func NewReportService(backend store.Backend, bills *BillService) *ReportService {
	return &ReportService{base: newBase(backend, nil), bills: bills}
}

type ItemSales struct {
	MenuItemID string          `json:"menuItemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int64           `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type SalesSummary struct {
	From              *time.Time      `json:"from"`
	To                *time.Time      `json:"to"`
	Orders            int             `json:"orders"`
	Completed         int             `json:"completed"`
	Cancelled         int             `json:"cancelled"`
	PaidBills         int             `json:"paidBills"`
	Revenue           decimal.Decimal `json:"revenue"`
	Tax               decimal.Decimal `json:"tax"`
	ServiceCharge     decimal.Decimal `json:"serviceCharge"`
	Discounts         decimal.Decimal `json:"discounts"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TopItems          []ItemSales     `json:"topItems"`
}

// Summary totals orders placed and bills paid within [from, to). Nil
// bounds are open. Money comes from paid bills; item counts from
// non-cancelled orders.
func (s *ReportService) Summary(ctx context.Context, hotelID string, from, to *time.Time) (*SalesSummary, error) {
	orders, err := store.Ensure[model.Order](ctx, s.backend, hotelID, store.Orders)
	if err != nil {
		return nil, err
	}
	bills, err := store.Ensure[model.Bill](ctx, s.backend, hotelID, store.Bills)
	if err != nil {
		return nil, err
	}

	in := func(t time.Time) bool {
		return (from == nil || !t.Before(*from)) && (to == nil || t.Before(*to))
	}

	sum := &SalesSummary{
		From:          from,
		To:            to,
		Revenue:       decimal.Zero,
		Tax:           decimal.Zero,
		ServiceCharge: decimal.Zero,
		Discounts:     decimal.Zero,
		TopItems:      []ItemSales{},
	}

	sales := map[string]*ItemSales{}
	for _, o := range orders.Items {
		if !in(o.OrderTime.PlacedAt) {
			continue
		}
		sum.Orders++
		switch o.OrderStatus {
		case enum.OrderStatusCompleted:
			sum.Completed++
		case enum.OrderStatusCancelled:
			sum.Cancelled++
			continue
		}
		for _, it := range o.OrderedItems {
			key := it.MenuItemID
			if key == "" {
				key = it.ItemName
			}
			row, ok := sales[key]
			if !ok {
				row = &ItemSales{MenuItemID: it.MenuItemID, ItemName: it.ItemName, Revenue: decimal.Zero}
				sales[key] = row
			}
			row.Quantity += int64(it.Quantity)
			row.Revenue = row.Revenue.Add(it.TotalPrice)
		}
	}

	for _, b := range bills.Items {
		pd := b.PaymentDetails
		if pd.PaymentStatus != enum.PaymentStatusPaid || pd.PaidAt == nil || !in(*pd.PaidAt) {
			continue
		}
		sum.PaidBills++
		sum.Revenue = sum.Revenue.Add(pd.GrandTotal)
		sum.Tax = sum.Tax.Add(pd.Tax)
		sum.ServiceCharge = sum.ServiceCharge.Add(pd.ServiceCharge)
		sum.Discounts = sum.Discounts.Add(pd.Discount)
	}
	if sum.PaidBills > 0 {
		sum.AverageOrderValue = sum.Revenue.Div(decimal.NewFromInt(int64(sum.PaidBills))).Round(2)
	}

	for _, row := range sales {
		sum.TopItems = append(sum.TopItems, *row)
	}
	sort.Slice(sum.TopItems, func(a, b int) bool {
		if sum.TopItems[a].Quantity != sum.TopItems[b].Quantity {
			return sum.TopItems[a].Quantity > sum.TopItems[b].Quantity
		}
		return sum.TopItems[a].ItemName < sum.TopItems[b].ItemName
	})
	if len(sum.TopItems) > topItemsLimit {
		sum.TopItems = sum.TopItems[:topItemsLimit]
	}
	return sum, nil
}

// Drift lists orders whose payment copy disagrees with their bill.
func (s *ReportService) Drift(ctx context.Context, hotelID string) ([]Drift, error) {
	return s.bills.DriftReport(ctx, hotelID)
}
