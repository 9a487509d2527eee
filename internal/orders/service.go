package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/pricing"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for orders.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	GenerateNumber(kind OrderKind) string
}

// DeliveryCreator creates the delivery that tracks an accepted order. It
// joins the acceptance transaction so an order can never be accepted without
// its delivery.
type DeliveryCreator interface {
	CreateForOrder(ctx context.Context, tx pgx.Tx, order Order) (int64, error)
}

// AuditPort records order lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service handles order business logic.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	deliveries DeliveryCreator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// SetDeliveryCreator wires the delivery side of order acceptance.
func (s *Service) SetDeliveryCreator(dc DeliveryCreator) {
	s.deliveries = dc
}

// Create validates the order, computes totals server-side and persists it.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if err := validateCreate(req); err != nil {
		return Order{}, err
	}

	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	pricingLines := make([]pricing.Line, len(req.Lines))
	for i, l := range req.Lines {
		pricingLines[i] = pricing.Line{Qty: l.Quantity, UnitPrice: l.UnitPrice, DiscountPct: l.DiscountPct}
	}
	totals := pricing.Totals(pricingLines)

	order := Order{
		Number:         s.repo.GenerateNumber(req.Kind),
		Kind:           req.Kind,
		CounterpartyID: req.CounterpartyID,
		Status:         StatusPending,
		OrderDate:      orderDate,
		TotalQuantity:  totals.Quantity,
		TotalDiscount:  totals.Discount,
		TotalValue:     totals.Value,
		Notes:          req.Notes,
		CreatedBy:      shared.ActorID(ctx),
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id
		for _, l := range req.Lines {
			line := OrderLine{
				OrderID:     orderID,
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Unit:        l.Unit,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				DiscountPct: l.DiscountPct,
				LineTotal:   pricing.LineTotal(l.UnitPrice, l.Quantity, l.DiscountPct),
			}
			if _, err := tx.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.record(ctx, "order.create", orderID, map[string]any{"kind": req.Kind, "number": order.Number})
	return s.repo.Get(ctx, orderID)
}

// Accept transitions PENDING→ACCEPTED and creates the tracking delivery in
// the same transaction. If delivery creation fails the order stays PENDING.
func (s *Service) Accept(ctx context.Context, id int64) (Order, int64, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, 0, err
	}
	if !CanTransition(order.Status, StatusAccepted) {
		return Order{}, 0, fmt.Errorf("%w: order %s cannot be accepted from %s", httpx.ErrConflict, order.Number, order.Status)
	}
	if s.deliveries == nil {
		return Order{}, 0, fmt.Errorf("delivery creator not wired")
	}

	now := time.Now()
	var deliveryID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStatus(ctx, id, StatusAccepted, map[string]any{"accepted_at": now}); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		did, err := s.deliveries.CreateForOrder(ctx, tx.Tx(), order)
		if err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}
		deliveryID = did
		return nil
	})
	if err != nil {
		return Order{}, 0, err
	}

	s.record(ctx, "order.accept", id, map[string]any{"delivery_id": deliveryID})
	accepted, err := s.repo.Get(ctx, id)
	return accepted, deliveryID, err
}

// Cancel transitions PENDING→CANCELLED with a reason. Orders are never
// deleted.
func (s *Service) Cancel(ctx context.Context, id int64, req CancelOrderRequest) (Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(order.Status, StatusCancelled) {
		return Order{}, fmt.Errorf("%w: order %s cannot be cancelled from %s", httpx.ErrConflict, order.Number, order.Status)
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, StatusCancelled, map[string]any{
			"cancel_reason": req.Reason,
			"cancelled_at":  now,
		})
	})
	if err != nil {
		return Order{}, err
	}

	s.record(ctx, "order.cancel", id, map[string]any{"reason": req.Reason})
	return s.repo.Get(ctx, id)
}

// CompleteOrder moves ACCEPTED→COMPLETED inside a caller-owned transaction.
// The delivery service invokes it when a delivery reaches a terminal state.
func (s *Service) CompleteOrder(ctx context.Context, tx pgx.Tx, orderID int64) error {
	var status OrderStatus
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return httpx.ErrNotFound
		}
		return err
	}
	if !CanTransition(status, StatusCompleted) {
		return fmt.Errorf("%w: order %d cannot complete from %s", httpx.ErrConflict, orderID, status)
	}
	_, err = tx.Exec(ctx, `UPDATE orders SET status = $1, completed_at = NOW(), updated_at = NOW() WHERE id = $2`,
		StatusCompleted, orderID)
	return err
}

// Get retrieves one order with lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching filters.
func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	return s.repo.List(ctx, req)
}

func validateCreate(req CreateOrderRequest) error {
	if !req.Kind.IsValid() {
		return fmt.Errorf("%w: unknown order kind %q", httpx.ErrValidation, req.Kind)
	}
	if req.CounterpartyID <= 0 {
		return fmt.Errorf("%w: counterparty is required", httpx.ErrValidation)
	}
	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", httpx.ErrValidation)
	}
	hundred := decimal.NewFromInt(100)
	for i, l := range req.Lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: line %d missing product", httpx.ErrValidation, i+1)
		}
		if strings.TrimSpace(l.ProductName) == "" {
			return fmt.Errorf("%w: line %d missing product name", httpx.ErrValidation, i+1)
		}
		if l.Quantity < 0 {
			return fmt.Errorf("%w: line %d quantity must not be negative", httpx.ErrValidation, i+1)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %d price must not be negative", httpx.ErrValidation, i+1)
		}
		if l.DiscountPct.IsNegative() || l.DiscountPct.GreaterThan(hundred) {
			return fmt.Errorf("%w: line %d discount must be between 0 and 100", httpx.ErrValidation, i+1)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
	})
}
