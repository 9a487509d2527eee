// Package pricing is the single authoritative implementation of line and
// order total arithmetic. Handlers and services must not re-derive totals;
// the dashboard previously recomputed them in several places with divergent
// rounding, which this package exists to prevent.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// OrderTotals aggregates the lines of an order.
type OrderTotals struct {
	Quantity int64           `json:"quantity"`
	Discount decimal.Decimal `json:"discount"`
	Value    decimal.Decimal `json:"value"`
}

// Line is the minimal shape needed to price a line item.
type Line struct {
	Qty         int64
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
}

// clamp forces inputs into their valid domains: qty >= 0, price >= 0,
// discount within [0, 100]. Out-of-range inputs are a caller bug, but totals
// must never go negative because of one.
func clamp(line Line) Line {
	if line.Qty < 0 {
		line.Qty = 0
	}
	if line.UnitPrice.IsNegative() {
		line.UnitPrice = decimal.Zero
	}
	if line.DiscountPct.IsNegative() {
		line.DiscountPct = decimal.Zero
	}
	if line.DiscountPct.GreaterThan(hundred) {
		line.DiscountPct = hundred
	}
	return line
}

// LineTotal computes price * qty * (1 - discount/100), rounded to 2 decimal
// places. The result is never negative.
func LineTotal(unitPrice decimal.Decimal, qty int64, discountPct decimal.Decimal) decimal.Decimal {
	line := clamp(Line{Qty: qty, UnitPrice: unitPrice, DiscountPct: discountPct})
	gross := line.UnitPrice.Mul(decimal.NewFromInt(line.Qty))
	factor := hundred.Sub(line.DiscountPct).Div(hundred)
	return gross.Mul(factor).Round(2)
}

// DiscountAmount computes the absolute discount on a line, rounded to 2dp.
func DiscountAmount(unitPrice decimal.Decimal, qty int64, discountPct decimal.Decimal) decimal.Decimal {
	line := clamp(Line{Qty: qty, UnitPrice: unitPrice, DiscountPct: discountPct})
	gross := line.UnitPrice.Mul(decimal.NewFromInt(line.Qty))
	return gross.Mul(line.DiscountPct).Div(hundred).Round(2)
}

// Totals reduces a set of lines into order-level totals.
func Totals(lines []Line) OrderTotals {
	totals := OrderTotals{Discount: decimal.Zero, Value: decimal.Zero}
	for _, raw := range lines {
		line := clamp(raw)
		totals.Quantity += line.Qty
		totals.Discount = totals.Discount.Add(DiscountAmount(line.UnitPrice, line.Qty, line.DiscountPct))
		totals.Value = totals.Value.Add(LineTotal(line.UnitPrice, line.Qty, line.DiscountPct))
	}
	return totals
}
