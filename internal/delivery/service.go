package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vetstock-erp/vetstock/internal/orders"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for deliveries.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Delivery, error)
	GetLines(ctx context.Context, deliveryID int64) ([]DeliveryLine, error)
	List(ctx context.Context, req ListDeliveriesRequest) ([]Delivery, int, error)
	ListPendingInventoryPosts(ctx context.Context, limit int) ([]int64, error)
	SetInventoryPostedAt(ctx context.Context, id int64, at time.Time) error
	CreateInTx(ctx context.Context, tx pgx.Tx, d Delivery) (int64, error)
}

// InvoicePort creates the sales invoice that gates outbound completion. It
// joins the completion transaction: invoice failure rolls the status back.
type InvoicePort interface {
	CreateForDelivery(ctx context.Context, tx pgx.Tx, d Delivery) (int64, error)
}

// InventoryPort posts lots for accepted inbound lines. Runs outside the
// status transaction; failure leaves a repost marker, not a rollback.
type InventoryPort interface {
	PostAcceptedLots(ctx context.Context, input InventoryPostInput) error
}

// IssuePort answers whether an open issue references a delivery.
type IssuePort interface {
	HasOpenIssue(ctx context.Context, deliveryID int64) (bool, error)
}

// OrderCompleter closes the originating order when a delivery reaches a
// terminal state, inside the same transaction.
type OrderCompleter interface {
	CompleteOrder(ctx context.Context, tx pgx.Tx, orderID int64) error
}

// JobPort enqueues background retries.
type JobPort interface {
	EnqueueInventoryRepost(ctx context.Context, deliveryID int64) error
}

// Notifier pushes events to connected dashboard clients.
type Notifier interface {
	Broadcast(event string, payload any)
}

// AuditPort records delivery lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service handles delivery business logic.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	audit     AuditPort
	invoices  InvoicePort
	inventory InventoryPort
	issues    IssuePort
	orders    OrderCompleter
	jobs      JobPort
	notify    Notifier
}

// NewService builds a Service instance. Collaborator ports are wired with
// setters because delivery sits in the middle of the dependency graph.
func NewService(logger *slog.Logger, repo RepositoryPort, audit AuditPort) *Service {
	return &Service{logger: logger, repo: repo, audit: audit}
}

func (s *Service) SetInvoicePort(p InvoicePort)       { s.invoices = p }
func (s *Service) SetInventoryPort(p InventoryPort)   { s.inventory = p }
func (s *Service) SetIssuePort(p IssuePort)           { s.issues = p }
func (s *Service) SetOrderCompleter(p OrderCompleter) { s.orders = p }
func (s *Service) SetJobPort(p JobPort)               { s.jobs = p }
func (s *Service) SetNotifier(n Notifier)             { s.notify = n }

// CreateForOrder creates a PENDING delivery mirroring an accepted order's
// lines, inside the acceptance transaction.
func (s *Service) CreateForOrder(ctx context.Context, tx pgx.Tx, order orders.Order) (int64, error) {
	direction := DirectionOutbound
	prefix := "DLV-OUT"
	if order.Kind == orders.KindSupplier {
		direction = DirectionInbound
		prefix = "DLV-IN"
	}
	d := Delivery{
		Number:         fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano()),
		Direction:      direction,
		OrderID:        order.ID,
		CounterpartyID: order.CounterpartyID,
		Status:         StatusPending,
		CreatedBy:      shared.ActorID(ctx),
	}
	for _, ol := range order.Lines {
		d.Lines = append(d.Lines, DeliveryLine{
			OrderLineID: ol.ID,
			ProductID:   ol.ProductID,
			ProductName: ol.ProductName,
			Unit:        ol.Unit,
			Quantity:    ol.Quantity,
			UnitPrice:   ol.UnitPrice,
			DiscountPct: ol.DiscountPct,
		})
	}
	return s.repo.CreateInTx(ctx, tx, d)
}

// Dispatch transitions PENDING→DISPATCHED.
func (s *Service) Dispatch(ctx context.Context, id int64) (Delivery, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if !CanTransition(d.Status, StatusDispatched) {
		return Delivery{}, fmt.Errorf("%w: delivery %s cannot dispatch from %s", httpx.ErrConflict, d.Number, d.Status)
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, id, StatusDispatched, map[string]any{"dispatched_at": now})
	})
	if err != nil {
		return Delivery{}, err
	}

	s.record(ctx, "delivery.dispatch", id, nil)
	s.broadcast("delivery.dispatched", map[string]any{"delivery_id": id, "number": d.Number})
	return s.repo.Get(ctx, id)
}

// ReviewLine records the accepted quantity for a line while the delivery is
// in transit. The value is clamped to [0, ordered]; the defect quantity is
// always derived from it, keeping accepted + defect == ordered by
// construction.
func (s *Service) ReviewLine(ctx context.Context, deliveryID, lineID int64, req ReviewLineRequest) (Delivery, error) {
	d, err := s.repo.Get(ctx, deliveryID)
	if err != nil {
		return Delivery{}, err
	}
	if d.Status != StatusDispatched {
		return Delivery{}, ErrNotDispatched
	}

	var line *DeliveryLine
	for i := range d.Lines {
		if d.Lines[i].ID == lineID {
			line = &d.Lines[i]
			break
		}
	}
	if line == nil {
		return Delivery{}, httpx.ErrNotFound
	}

	accepted := line.ClampAccepted(req.AcceptedQty)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateLineReview(ctx, lineID, accepted, req.ExpiryDate)
	})
	if err != nil {
		return Delivery{}, err
	}

	s.record(ctx, "delivery.review_line", deliveryID, map[string]any{
		"line_id":  lineID,
		"accepted": accepted,
		"defect":   line.Quantity - accepted,
	})
	return s.repo.Get(ctx, deliveryID)
}

// MarkDelivered transitions DISPATCHED→DELIVERED. Every line must be
// reviewed defect-free; inbound lines need expiry dates; outbound completion
// is gated on invoice creation inside the same transaction. Rejections
// mutate nothing and repeat identically.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (Delivery, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if !CanTransition(d.Status, StatusDelivered) {
		return Delivery{}, fmt.Errorf("%w: delivery %s cannot complete from %s", httpx.ErrConflict, d.Number, d.Status)
	}
	for _, l := range d.Lines {
		if !l.Reviewed() {
			return Delivery{}, ErrUnreviewedLines
		}
		if l.DefectQty() > 0 {
			return Delivery{}, ErrHasDefects
		}
		if d.Direction == DirectionInbound && l.ExpiryDate == nil {
			return Delivery{}, ErrMissingExpiry
		}
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStatus(ctx, id, StatusDelivered, map[string]any{"delivered_at": now}); err != nil {
			return err
		}
		if d.Direction == DirectionOutbound {
			if s.invoices == nil {
				return fmt.Errorf("invoice port not wired")
			}
			if _, err := s.invoices.CreateForDelivery(ctx, tx.Tx(), d); err != nil {
				return fmt.Errorf("create invoice: %w", err)
			}
		}
		if s.orders != nil {
			if err := s.orders.CompleteOrder(ctx, tx.Tx(), d.OrderID); err != nil {
				return fmt.Errorf("complete order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}

	s.record(ctx, "delivery.delivered", id, nil)
	s.broadcast("delivery.delivered", map[string]any{"delivery_id": id, "number": d.Number})

	if d.Direction == DirectionInbound {
		if err := s.postInventory(ctx, id); err != nil {
			delivered, getErr := s.repo.Get(ctx, id)
			if getErr != nil {
				return Delivery{}, getErr
			}
			return delivered, err
		}
	}
	return s.repo.Get(ctx, id)
}

// MarkDeliveredWithIssues transitions DISPATCHED→DELIVERED_WITH_ISSUES. At
// least one line must carry a defect and an open issue must reference the
// delivery. Inbound deliveries still post lots for the accepted portion.
func (s *Service) MarkDeliveredWithIssues(ctx context.Context, id int64) (Delivery, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if !CanTransition(d.Status, StatusDeliveredWithIssues) {
		return Delivery{}, fmt.Errorf("%w: delivery %s cannot complete from %s", httpx.ErrConflict, d.Number, d.Status)
	}
	hasDefect := false
	for _, l := range d.Lines {
		if !l.Reviewed() {
			return Delivery{}, ErrUnreviewedLines
		}
		if l.DefectQty() > 0 {
			hasDefect = true
		}
		if d.Direction == DirectionInbound && *l.AcceptedQty > 0 && l.ExpiryDate == nil {
			return Delivery{}, ErrMissingExpiry
		}
	}
	if !hasDefect {
		return Delivery{}, ErrNoDefects
	}
	if s.issues == nil {
		return Delivery{}, fmt.Errorf("issue port not wired")
	}
	open, err := s.issues.HasOpenIssue(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if !open {
		return Delivery{}, ErrNoOpenIssue
	}

	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateStatus(ctx, id, StatusDeliveredWithIssues, map[string]any{"delivered_at": now}); err != nil {
			return err
		}
		if s.orders != nil {
			if err := s.orders.CompleteOrder(ctx, tx.Tx(), d.OrderID); err != nil {
				return fmt.Errorf("complete order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Delivery{}, err
	}

	s.record(ctx, "delivery.delivered_with_issues", id, nil)
	s.broadcast("delivery.delivered_with_issues", map[string]any{"delivery_id": id, "number": d.Number})

	if d.Direction == DirectionInbound {
		if err := s.postInventory(ctx, id); err != nil {
			delivered, getErr := s.repo.Get(ctx, id)
			if getErr != nil {
				return Delivery{}, getErr
			}
			return delivered, err
		}
	}
	return s.repo.Get(ctx, id)
}

// RepostInventory retries lot posting for an inbound delivery whose first
// post failed.
func (s *Service) RepostInventory(ctx context.Context, id int64) (Delivery, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if d.Direction != DirectionInbound {
		return Delivery{}, ErrNotInboundDelivery
	}
	if !d.Status.IsTerminal() {
		return Delivery{}, fmt.Errorf("%w: delivery %s is not completed yet", httpx.ErrConflict, d.Number)
	}
	if d.InventoryPostedAt != nil {
		return Delivery{}, ErrInventoryPosted
	}
	if err := s.postInventory(ctx, id); err != nil {
		return Delivery{}, err
	}
	return s.repo.Get(ctx, id)
}

// PendingInventoryPosts lists inbound deliveries still awaiting lot posting.
func (s *Service) PendingInventoryPosts(ctx context.Context, limit int) ([]int64, error) {
	return s.repo.ListPendingInventoryPosts(ctx, limit)
}

// postInventory builds one lot per accepted line and hands them to the
// inventory port. On failure it schedules a retry and returns
// ErrInventoryPostFailed; the delivery keeps its terminal status either way.
func (s *Service) postInventory(ctx context.Context, id int64) error {
	if s.inventory == nil {
		return fmt.Errorf("inventory port not wired")
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	input := InventoryPostInput{DeliveryID: d.ID, DeliveryNumber: d.Number}
	for _, l := range d.Lines {
		if l.AcceptedQty == nil || *l.AcceptedQty <= 0 {
			continue
		}
		lot := InventoryPostLot{
			ProductID: l.ProductID,
			Quantity:  *l.AcceptedQty,
			UnitCost:  l.UnitPrice,
		}
		if l.ExpiryDate != nil {
			lot.ExpiryDate = *l.ExpiryDate
		}
		input.Lots = append(input.Lots, lot)
	}

	if len(input.Lots) > 0 {
		if err := s.inventory.PostAcceptedLots(ctx, input); err != nil {
			s.logger.Error("post inventory", slog.Int64("delivery_id", id), slog.Any("error", err))
			if s.jobs != nil {
				if enqErr := s.jobs.EnqueueInventoryRepost(ctx, id); enqErr != nil {
					s.logger.Error("enqueue inventory repost", slog.Int64("delivery_id", id), slog.Any("error", enqErr))
				}
			}
			return ErrInventoryPostFailed
		}
	}

	if err := s.repo.SetInventoryPostedAt(ctx, id, time.Now()); err != nil {
		return err
	}
	s.record(ctx, "delivery.inventory_posted", id, map[string]any{"lots": len(input.Lots)})
	return nil
}

// Get retrieves one delivery with lines.
func (s *Service) Get(ctx context.Context, id int64) (Delivery, error) {
	return s.repo.Get(ctx, id)
}

// GetLines retrieves the lines of a delivery.
func (s *Service) GetLines(ctx context.Context, id int64) ([]DeliveryLine, error) {
	return s.repo.GetLines(ctx, id)
}

// List returns deliveries matching filters.
func (s *Service) List(ctx context.Context, req ListDeliveriesRequest) ([]Delivery, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) record(ctx context.Context, action string, deliveryID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "delivery",
		EntityID: fmt.Sprintf("%d", deliveryID),
		Meta:     meta,
	})
}

func (s *Service) broadcast(event string, payload any) {
	if s.notify != nil {
		s.notify.Broadcast(event, payload)
	}
}
