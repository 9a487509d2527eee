// Package inventory owns stock lots created from accepted inbound delivery
// lines. Lots are immutable once written; depletion is tracked elsewhere.
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot is one batch of stock received through an inbound delivery.
type Lot struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	DeliveryID int64           `json:"delivery_id"`
	BatchCode  string          `json:"batch_code"`
	Quantity   int64           `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ExpiryDate time.Time       `json:"expiry_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AcceptDeliveryInput carries the accepted portion of an inbound delivery.
type AcceptDeliveryInput struct {
	DeliveryID int64
	BatchCode  string
	Lots       []LotInput
}

// LotInput describes one lot to create.
type LotInput struct {
	ProductID  int64
	Quantity   int64
	UnitCost   decimal.Decimal
	ExpiryDate time.Time
}

// ListLotsRequest represents filters for listing lots.
type ListLotsRequest struct {
	ProductID      *int64
	DeliveryID     *int64
	ExpiringBefore *time.Time
	Page           int
	PerPage        int
}
