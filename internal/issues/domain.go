// Package issues records problems reported against deliveries: damaged or
// missing goods, wrong quantities, expired stock. An open issue is the
// precondition for completing a delivery with issues.
package issues

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetstock-erp/vetstock/internal/delivery"
)

// IssueType classifies what went wrong.
type IssueType string

const (
	TypeDamaged   IssueType = "DAMAGED"
	TypeMissing   IssueType = "MISSING"
	TypeIncorrect IssueType = "INCORRECT"
	TypeExpired   IssueType = "EXPIRED"
	TypeDefective IssueType = "DEFECTIVE"
	TypeWrongQty  IssueType = "WRONG_QTY"
	TypePackaging IssueType = "PACKAGING"
	TypeOther     IssueType = "OTHER"
)

// IsValid checks if the type is known.
func (t IssueType) IsValid() bool {
	switch t {
	case TypeDamaged, TypeMissing, TypeIncorrect, TypeExpired,
		TypeDefective, TypeWrongQty, TypePackaging, TypeOther:
		return true
	default:
		return false
	}
}

// Resolution describes how an issue is settled.
type Resolution string

const (
	ResolutionReshipment   Resolution = "RESHIPMENT"
	ResolutionRefund       Resolution = "REFUND"
	ResolutionRescheduled  Resolution = "RESCHEDULED"
	ResolutionAddressIssue Resolution = "ADDRESS_ISSUE"
	ResolutionDamagedGoods Resolution = "DAMAGED_GOODS"
	ResolutionReplaced     Resolution = "REPLACED"
	ResolutionOffset       Resolution = "OFFSET"
	ResolutionOther        Resolution = "OTHER"
)

// IsValid checks if the resolution is known.
func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionReshipment, ResolutionRefund, ResolutionRescheduled, ResolutionAddressIssue,
		ResolutionDamagedGoods, ResolutionReplaced, ResolutionOffset, ResolutionOther:
		return true
	default:
		return false
	}
}

// Status is the issue lifecycle: PENDING then RESOLVED or CANCELLED.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusResolved  Status = "RESOLVED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is known.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusCancelled:
		return true
	default:
		return false
	}
}

// Issue references its delivery by id plus a direction snapshot so the Logs
// screen can label it without a join.
type Issue struct {
	ID          int64              `json:"id"`
	DeliveryID  int64              `json:"delivery_id"`
	Direction   delivery.Direction `json:"direction"`
	Type        IssueType          `json:"type"`
	Resolution  Resolution         `json:"resolution"`
	Status      Status             `json:"status"`
	Remarks     string             `json:"remarks"`
	CreatedBy   int64              `json:"created_by"`
	ResolvedAt  *time.Time         `json:"resolved_at,omitempty"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Lines       []IssueLine        `json:"lines,omitempty"`
}

// IssueLine pins an affected quantity to a delivery line. The unit price is
// snapshotted from the delivery line and the line total is price times
// quantity: a defect claim is valued at replacement cost, undiscounted.
type IssueLine struct {
	ID             int64           `json:"id"`
	IssueID        int64           `json:"issue_id"`
	DeliveryLineID int64           `json:"delivery_line_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

// OpenIssueRequest is the payload for opening an issue.
type OpenIssueRequest struct {
	DeliveryID int64                  `json:"delivery_id" validate:"required,gt=0"`
	Type       IssueType              `json:"type" validate:"required"`
	Resolution Resolution             `json:"resolution" validate:"required"`
	Remarks    string                 `json:"remarks" validate:"required,min=3,max=1000"`
	Lines      []OpenIssueLineRequest `json:"lines" validate:"dive"`
}

// OpenIssueLineRequest pins a quantity to a delivery line.
type OpenIssueLineRequest struct {
	DeliveryLineID int64 `json:"delivery_line_id" validate:"required,gt=0"`
	Quantity       int64 `json:"quantity" validate:"gte=0"`
}

// ResolveIssueRequest closes an issue with a final resolution. Lines may
// carry the quantities as finally settled, which replace the claimed ones.
type ResolveIssueRequest struct {
	Resolution Resolution                `json:"resolution" validate:"required"`
	Remarks    string                    `json:"remarks" validate:"max=1000"`
	Lines      []ResolveIssueLineRequest `json:"lines" validate:"dive"`
}

// ResolveIssueLineRequest sets the settled quantity of one issue line.
type ResolveIssueLineRequest struct {
	IssueLineID int64 `json:"issue_line_id" validate:"required,gt=0"`
	Quantity    int64 `json:"quantity" validate:"gte=0"`
}

// ListIssuesRequest represents filters for listing issues.
type ListIssuesRequest struct {
	DeliveryID *int64
	Status     *Status
	Type       *IssueType
	Page       int
	PerPage    int
}
