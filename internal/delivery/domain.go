// Package delivery tracks shipments created from accepted orders. A delivery
// moves PENDING → DISPATCHED → DELIVERED or DELIVERED_WITH_ISSUES; both end
// states are terminal. Inbound deliveries feed inventory lots, outbound
// deliveries are gated on invoice creation.
package delivery

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Direction distinguishes goods coming from suppliers from goods going out
// to customers.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// IsValid checks if the direction is known.
func (d Direction) IsValid() bool {
	return d == DirectionInbound || d == DirectionOutbound
}

// Status represents the delivery lifecycle.
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusDispatched          Status = "DISPATCHED"
	StatusDelivered           Status = "DELIVERED"
	StatusDeliveredWithIssues Status = "DELIVERED_WITH_ISSUES"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusDispatched, StatusDelivered, StatusDeliveredWithIssues:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusDeliveredWithIssues
}

// AllowedNext returns the statuses reachable from s. Terminal statuses
// return an empty slice.
func AllowedNext(s Status) []Status {
	switch s {
	case StatusPending:
		return []Status{StatusDispatched}
	case StatusDispatched:
		return []Status{StatusDelivered, StatusDeliveredWithIssues}
	default:
		return nil
	}
}

// CanTransition reports whether from→to is a legal move.
func CanTransition(from, to Status) bool {
	for _, next := range AllowedNext(from) {
		if next == to {
			return true
		}
	}
	return false
}

// Guard errors. They are stable so repeated rejected attempts compare equal
// and carry no side effects.
var (
	ErrUnreviewedLines      = fmt.Errorf("%w: all lines must be reviewed before completing a delivery", httpx.ErrConflict)
	ErrHasDefects           = fmt.Errorf("%w: delivery has defect quantities; complete it with issues instead", httpx.ErrConflict)
	ErrNoDefects            = fmt.Errorf("%w: delivery has no defect quantities; complete it as delivered", httpx.ErrConflict)
	ErrMissingExpiry        = fmt.Errorf("%w: inbound lines require an expiry date before completion", httpx.ErrConflict)
	ErrNoOpenIssue          = fmt.Errorf("%w: an open issue referencing the delivery is required", httpx.ErrConflict)
	ErrInventoryPostFailed  = errors.New("inventory posting failed; delivery is marked for repost")
	ErrInventoryPosted      = fmt.Errorf("%w: inventory already posted for this delivery", httpx.ErrConflict)
	ErrNotInboundDelivery   = fmt.Errorf("%w: inventory posting applies to inbound deliveries only", httpx.ErrConflict)
	ErrNotDispatched        = fmt.Errorf("%w: delivery must be dispatched first", httpx.ErrConflict)
)

// Delivery represents one shipment tied to an order.
type Delivery struct {
	ID                int64          `json:"id"`
	Number            string         `json:"number"`
	Direction         Direction      `json:"direction"`
	OrderID           int64          `json:"order_id"`
	CounterpartyID    int64          `json:"counterparty_id"`
	Status            Status         `json:"status"`
	DispatchedAt      *time.Time     `json:"dispatched_at,omitempty"`
	DeliveredAt       *time.Time     `json:"delivered_at,omitempty"`
	InventoryPostedAt *time.Time     `json:"inventory_posted_at,omitempty"`
	Notes             string         `json:"notes"`
	CreatedBy         int64          `json:"created_by"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	Lines             []DeliveryLine `json:"lines,omitempty"`
}

// DeliveryLine tracks one product through shipment review. AcceptedQty is
// nil until a staff member reviews the line; the defect quantity is always
// derived, never stored independently of the accepted quantity.
type DeliveryLine struct {
	ID          int64           `json:"id"`
	DeliveryID  int64           `json:"delivery_id"`
	OrderLineID int64           `json:"order_line_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit"`
	Quantity    int64           `json:"quantity"`
	AcceptedQty *int64          `json:"accepted_qty,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Reviewed reports whether the accepted quantity has been set.
func (l DeliveryLine) Reviewed() bool {
	return l.AcceptedQty != nil
}

// DefectQty derives the defect count. By construction accepted + defect
// equals the ordered quantity; an unreviewed line reports zero defects.
func (l DeliveryLine) DefectQty() int64 {
	if l.AcceptedQty == nil {
		return 0
	}
	return l.Quantity - *l.AcceptedQty
}

// ClampAccepted bounds a proposed accepted quantity to [0, ordered].
func (l DeliveryLine) ClampAccepted(accepted int64) int64 {
	if accepted < 0 {
		return 0
	}
	if accepted > l.Quantity {
		return l.Quantity
	}
	return accepted
}
