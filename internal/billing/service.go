package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/pricing"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, inv Invoice) (int64, error)
	Get(ctx context.Context, id int64) (Invoice, error)
	GetByDelivery(ctx context.Context, deliveryID int64) (Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
}

// AuditPort records invoice events.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// ReportCachePort drops cached sales reports when a new invoice lands.
type ReportCachePort interface {
	Invalidate(ctx context.Context) error
}

// Service handles invoice business logic.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	reports ReportCachePort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// SetReportCache attaches the report cache, wired after construction in main.
func (s *Service) SetReportCache(reports ReportCachePort) { s.reports = reports }

// CreateForDelivery issues the invoice for an outbound delivery inside the
// caller's completion transaction. Totals are priced from the accepted
// quantities; an error here rolls the whole completion back.
func (s *Service) CreateForDelivery(ctx context.Context, tx pgx.Tx, d delivery.Delivery) (int64, error) {
	lines := make([]pricing.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		qty := l.Quantity
		if l.AcceptedQty != nil {
			qty = *l.AcceptedQty
		}
		lines = append(lines, pricing.Line{
			Qty:         qty,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
		})
	}
	totals := pricing.Totals(lines)

	now := time.Now()
	id, err := s.repo.CreateInTx(ctx, tx, Invoice{
		Number:        fmt.Sprintf("INV-%d", now.UnixNano()),
		DeliveryID:    d.ID,
		OrderID:       d.OrderID,
		CustomerID:    d.CounterpartyID,
		TotalQuantity: totals.Quantity,
		TotalDiscount: totals.Discount,
		TotalValue:    totals.Value,
		IssuedAt:      now,
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "invoice.create", id, map[string]any{"delivery_id": d.ID, "order_id": d.OrderID})
	if s.reports != nil {
		// A stray bump on a rolled-back completion only costs one recompute.
		_ = s.reports.Invalidate(ctx)
	}
	return id, nil
}

// Get retrieves one invoice.
func (s *Service) Get(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.Get(ctx, id)
}

// GetByDelivery retrieves the invoice of a delivery.
func (s *Service) GetByDelivery(ctx context.Context, deliveryID int64) (Invoice, error) {
	return s.repo.GetByDelivery(ctx, deliveryID)
}

// List returns invoices matching filters.
func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) record(ctx context.Context, action string, invoiceID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "invoice",
		EntityID: fmt.Sprintf("%d", invoiceID),
		Meta:     meta,
	})
}
