package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Errorf("%s: got %s, want %s", field, got, want)
	}
}

func TestCalculate_OrderCreationExample(t *testing.T) {
	lines := []Line{
		{Quantity: 2, UnitPrice: d("100")},
		{Quantity: 1, UnitPrice: d("50")},
	}
	got := Calculate(lines, Rates{TaxPercent: d("5")}, decimal.Zero)

	assertDecimal(t, "subtotal", got.Subtotal, "250")
	assertDecimal(t, "tax", got.Tax, "12.5")
	assertDecimal(t, "serviceCharge", got.ServiceCharge, "0")
	assertDecimal(t, "grandTotal", got.GrandTotal, "262.5")
}

func TestCalculate_ServiceChargeAndDiscount(t *testing.T) {
	lines := []Line{{Quantity: 4, UnitPrice: d("25.50")}}
	got := Calculate(lines, Rates{TaxPercent: d("10"), ServiceChargePercent: d("5")}, d("12"))

	assertDecimal(t, "subtotal", got.Subtotal, "102")
	assertDecimal(t, "tax", got.Tax, "10.2")
	assertDecimal(t, "serviceCharge", got.ServiceCharge, "5.1")
	assertDecimal(t, "discount", got.Discount, "12")
	assertDecimal(t, "grandTotal", got.GrandTotal, "105.3")
}

func TestCalculate_NegativeDiscountIsClamped(t *testing.T) {
	got := Calculate([]Line{{Quantity: 1, UnitPrice: d("10")}}, Rates{}, d("-5"))
	assertDecimal(t, "discount", got.Discount, "0")
	assertDecimal(t, "grandTotal", got.GrandTotal, "10")
}

func TestGrandTotal_NeverNegative(t *testing.T) {
	tests := []struct {
		name                          string
		subtotal, tax, svc, discount string
		want                          string
	}{
		{"discount larger than everything", "250", "12.5", "0", "1000", "0"},
		{"discount equals total", "100", "5", "5", "110", "0"},
		{"scenario discount", "250", "12.5", "0", "20", "242.5"},
		{"with service charge", "250", "12.5", "10", "20", "252.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrandTotal(d(tt.subtotal), d(tt.tax), d(tt.svc), d(tt.discount))
			assertDecimal(t, "grandTotal", got, tt.want)
			if got.IsNegative() {
				t.Fatalf("grandTotal must be >= 0, got %s", got)
			}
		})
	}
}

func TestRecomputeEdited(t *testing.T) {
	// Legacy rule drops service charge and discount.
	assertDecimal(t, "legacy", RecomputeEdited(d("300"), d("15"), d("10"), d("20"), false), "315")
	assertDecimal(t, "full", RecomputeEdited(d("300"), d("15"), d("10"), d("20"), true), "305")
}

func TestSettle(t *testing.T) {
	paid := d("250")
	amount, change := Settle(&paid, d("242.5"))
	assertDecimal(t, "paidAmount", amount, "250")
	assertDecimal(t, "changeAmount", change, "7.5")

	amount, change = Settle(nil, d("242.5"))
	assertDecimal(t, "paidAmount default", amount, "242.5")
	assertDecimal(t, "changeAmount default", change, "0")

	short := d("200")
	_, change = Settle(&short, d("242.5"))
	assertDecimal(t, "changeAmount underpaid", change, "0")
}

func TestLineTotalMatchesSubtotal(t *testing.T) {
	lines := []Line{
		{Quantity: 3, UnitPrice: d("19.99")},
		{Quantity: 1, UnitPrice: d("0")},
		{Quantity: 7, UnitPrice: d("2.25")},
	}
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	if !sum.Equal(Subtotal(lines)) {
		t.Fatalf("Σ line totals %s != subtotal %s", sum, Subtotal(lines))
	}
}
