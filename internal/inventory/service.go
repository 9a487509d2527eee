package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for lots.
type RepositoryPort interface {
	CreateLots(ctx context.Context, input AcceptDeliveryInput) error
	List(ctx context.Context, req ListLotsRequest) ([]Lot, int, error)
	ExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lot, error)
}

// IdempotencyPort guards against double-posting a delivery.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// AuditPort records inventory events.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service handles inventory business logic.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, audit AuditPort) *Service {
	return &Service{repo: repo, idempotency: idempotency, audit: audit}
}

func acceptKey(deliveryID int64) string {
	return fmt.Sprintf("inventory:accept:%d", deliveryID)
}

// AcceptDelivery creates one lot per accepted line of an inbound delivery.
// Posting the same delivery twice is a no-op; a failed insert releases the
// idempotency key so the repost job can try again.
func (s *Service) AcceptDelivery(ctx context.Context, input AcceptDeliveryInput) error {
	if input.DeliveryID <= 0 {
		return fmt.Errorf("%w: delivery reference is required", httpx.ErrValidation)
	}
	if len(input.Lots) == 0 {
		return fmt.Errorf("%w: at least one lot is required", httpx.ErrValidation)
	}
	for i, lot := range input.Lots {
		if lot.Quantity <= 0 {
			return fmt.Errorf("%w: lot %d quantity must be positive", httpx.ErrValidation, i+1)
		}
		if lot.ExpiryDate.IsZero() {
			return fmt.Errorf("%w: lot %d missing expiry date", httpx.ErrValidation, i+1)
		}
	}

	key := acceptKey(input.DeliveryID)
	if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil
		}
		return err
	}

	if err := s.repo.CreateLots(ctx, input); err != nil {
		if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorID(ctx),
			Action:   "inventory.accept_delivery",
			Entity:   "delivery",
			EntityID: fmt.Sprintf("%d", input.DeliveryID),
			Meta:     map[string]any{"lots": len(input.Lots), "batch": input.BatchCode},
		})
	}
	return nil
}

// ListLots returns lots matching filters.
func (s *Service) ListLots(ctx context.Context, req ListLotsRequest) ([]Lot, int, error) {
	return s.repo.List(ctx, req)
}

// ExpiringLots returns lots expiring within the window from now.
func (s *Service) ExpiringLots(ctx context.Context, window time.Duration) ([]Lot, error) {
	return s.repo.ExpiringBefore(ctx, time.Now().Add(window))
}
