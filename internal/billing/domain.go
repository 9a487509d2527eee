// Package billing issues sales invoices for outbound deliveries. Invoice
// creation is the gate an outbound delivery must pass to reach DELIVERED.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the billing document for one outbound delivery. At most one
// invoice exists per delivery.
type Invoice struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	DeliveryID    int64           `json:"delivery_id"`
	OrderID       int64           `json:"order_id"`
	CustomerID    int64           `json:"customer_id"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalValue    decimal.Decimal `json:"total_value"`
	IssuedAt      time.Time       `json:"issued_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ListInvoicesRequest represents filters for listing invoices.
type ListInvoicesRequest struct {
	CustomerID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PerPage    int
}
