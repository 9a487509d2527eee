// Package reports computes sales aggregates over issued invoices. Results
// are cached in Redis because the dashboard polls them on every load.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesReport aggregates invoiced sales over a date range.
type SalesReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	InvoiceCount  int64           `json:"invoice_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TopProducts   []ProductSales  `json:"top_products"`
	Daily         []DailySales    `json:"daily"`
}

// ProductSales ranks one product within a sales report.
type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

// DailySales is one day's invoiced total.
type DailySales struct {
	Day   time.Time       `json:"day"`
	Count int64           `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// SalesRequest bounds a sales report. Zero values default to the current
// month.
type SalesRequest struct {
	From time.Time
	To   time.Time
}

// Normalize fills missing bounds and orders them.
func (r SalesRequest) Normalize(now time.Time) SalesRequest {
	if r.From.IsZero() {
		r.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	if r.To.IsZero() {
		r.To = now
	}
	if r.To.Before(r.From) {
		r.From, r.To = r.To, r.From
	}
	return r
}
