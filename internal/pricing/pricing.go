// Package pricing computes order and bill totals.
//
//	subtotal   = Σ quantity × unitPrice
//	grandTotal = max(0, subtotal + tax + serviceCharge − max(0, discount))
//
// Percentages are expressed as whole numbers (5 means 5%). Derived amounts
// are rounded to two decimals.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Line is a priced quantity.
type Line struct {
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Rates are the percentage charges applied on top of the subtotal.
type Rates struct {
	TaxPercent           decimal.Decimal
	ServiceChargePercent decimal.Decimal
}

type Totals struct {
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Discount      decimal.Decimal
	GrandTotal    decimal.Decimal
}

func LineTotal(quantity int32, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(quantity))
}

func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(LineTotal(l.Quantity, l.UnitPrice))
	}
	return sum
}

// Percent returns pct% of amount rounded to two decimals.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred).Round(2)
}

// ClampDiscount returns max(0, d).
func ClampDiscount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// GrandTotal returns max(0, subtotal + tax + serviceCharge − max(0, discount)).
func GrandTotal(subtotal, tax, serviceCharge, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(serviceCharge).Sub(ClampDiscount(discount))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Calculate prices lines with the given rates and discount.
func Calculate(lines []Line, rates Rates, discount decimal.Decimal) Totals {
	subtotal := Subtotal(lines)
	tax := Percent(subtotal, rates.TaxPercent)
	service := Percent(subtotal, rates.ServiceChargePercent)
	discount = ClampDiscount(discount)
	return Totals{
		Subtotal:      subtotal,
		Tax:           tax,
		ServiceCharge: service,
		Discount:      discount,
		GrandTotal:    GrandTotal(subtotal, tax, service, discount),
	}
}

// RecomputeEdited returns the grand total after staff edit a bill's subtotal
// or tax. The legacy rule is newSubtotal + newTax; keepAdjustments applies
// the full formula with the bill's service charge and discount.
func RecomputeEdited(subtotal, tax, serviceCharge, discount decimal.Decimal, keepAdjustments bool) decimal.Decimal {
	if keepAdjustments {
		return GrandTotal(subtotal, tax, serviceCharge, discount)
	}
	return GrandTotal(subtotal, tax, decimal.Zero, decimal.Zero)
}

// Settle resolves the paid amount (defaulting to grandTotal) and the change due.
func Settle(paid *decimal.Decimal, grandTotal decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	amount := grandTotal
	if paid != nil {
		amount = *paid
	}
	change := amount.Sub(grandTotal)
	if change.IsNegative() {
		change = decimal.Zero
	}
	return amount, change
}
