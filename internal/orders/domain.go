// Package orders manages customer and supplier orders through their
// lifecycle. Both counterparty kinds share one entity, tagged by OrderKind,
// so validation and transition rules live in a single place.
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes the counterparty of an order.
type OrderKind string

const (
	KindCustomer OrderKind = "CUSTOMER"
	KindSupplier OrderKind = "SUPPLIER"
)

// IsValid checks if the kind is known.
func (k OrderKind) IsValid() bool {
	return k == KindCustomer || k == KindSupplier
}

// OrderStatus represents the lifecycle of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// IsValid checks if the status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// AllowedNext returns the statuses reachable from s. Terminal statuses
// return an empty slice.
func AllowedNext(s OrderStatus) []OrderStatus {
	switch s {
	case StatusPending:
		return []OrderStatus{StatusAccepted, StatusCancelled}
	case StatusAccepted:
		return []OrderStatus{StatusCompleted}
	default:
		return nil
	}
}

// CanTransition reports whether from→to is a legal move.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range AllowedNext(from) {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents an order header. Totals are computed server-side from the
// lines via internal/pricing and never trusted from the client.
type Order struct {
	ID             int64           `json:"id"`
	Number         string          `json:"number"`
	Kind           OrderKind       `json:"kind"`
	CounterpartyID int64           `json:"counterparty_id"`
	Status         OrderStatus     `json:"status"`
	OrderDate      time.Time       `json:"order_date"`
	TotalQuantity  int64           `json:"total_quantity"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TotalValue     decimal.Decimal `json:"total_value"`
	Notes          string          `json:"notes"`
	CancelReason   *string         `json:"cancel_reason,omitempty"`
	CreatedBy      int64           `json:"created_by"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Lines          []OrderLine     `json:"lines,omitempty"`
}

// OrderLine snapshots the product at order time so later catalogue edits do
// not rewrite history.
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
