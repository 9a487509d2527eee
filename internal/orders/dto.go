package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the payload for creating an order.
type CreateOrderRequest struct {
	Kind           OrderKind                `json:"kind" validate:"required"`
	CounterpartyID int64                    `json:"counterparty_id" validate:"required,gt=0"`
	OrderDate      time.Time                `json:"order_date"`
	Notes          string                   `json:"notes" validate:"max=1000"`
	Lines          []CreateOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreateOrderLineRequest is a line item in the create payload.
type CreateOrderLineRequest struct {
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	Unit        string          `json:"unit" validate:"max=32"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// CancelOrderRequest carries the cancellation reason.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ListOrdersRequest represents filters for listing orders.
type ListOrdersRequest struct {
	Kind           *OrderKind
	Status         *OrderStatus
	CounterpartyID *int64
	DateFrom       *time.Time
	DateTo         *time.Time
	Page           int
	PerPage        int
}
