package delivery

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewLineRequest sets the accepted quantity for a delivery line.
type ReviewLineRequest struct {
	AcceptedQty int64      `json:"accepted_qty" validate:"gte=0"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
}

// ListDeliveriesRequest represents filters for listing deliveries.
type ListDeliveriesRequest struct {
	Direction *Direction
	Status    *Status
	OrderID   *int64
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PerPage   int
}

// InventoryPostInput is handed to the inventory port when an inbound
// delivery completes. One lot per accepted line.
type InventoryPostInput struct {
	DeliveryID     int64
	DeliveryNumber string
	Lots           []InventoryPostLot
}

// InventoryPostLot describes one lot to create.
type InventoryPostLot struct {
	ProductID  int64
	Quantity   int64
	UnitCost   decimal.Decimal
	ExpiryDate time.Time
}
