package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/pricing"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

// RepositoryPort defines data access methods for issues.
type RepositoryPort interface {
	Create(ctx context.Context, issue Issue) (int64, error)
	Get(ctx context.Context, id int64) (Issue, error)
	List(ctx context.Context, req ListIssuesRequest) ([]Issue, int, error)
	CountOpenByDelivery(ctx context.Context, deliveryID int64) (int, error)
	UpdateLine(ctx context.Context, lineID int64, quantity int64, lineTotal decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status Status, updates map[string]any) error
}

// DeliveryPort loads the delivery an issue refers to.
type DeliveryPort interface {
	Get(ctx context.Context, id int64) (delivery.Delivery, error)
}

// AuditPort records issue lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Service handles issue business logic.
type Service struct {
	repo       RepositoryPort
	deliveries DeliveryPort
	audit      AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, deliveries DeliveryPort, audit AuditPort) *Service {
	return &Service{repo: repo, deliveries: deliveries, audit: audit}
}

// Open records a new PENDING issue against a delivery. The delivery must be
// in transit or already completed with issues; recorded lines must point at
// reviewed delivery lines carrying defects, with quantities within what was
// shipped.
func (s *Service) Open(ctx context.Context, req OpenIssueRequest) (Issue, error) {
	if !req.Type.IsValid() {
		return Issue{}, fmt.Errorf("%w: unknown issue type %q", httpx.ErrValidation, req.Type)
	}
	if !req.Resolution.IsValid() {
		return Issue{}, fmt.Errorf("%w: unknown resolution %q", httpx.ErrValidation, req.Resolution)
	}
	if strings.TrimSpace(req.Remarks) == "" {
		return Issue{}, fmt.Errorf("%w: remarks are required", httpx.ErrValidation)
	}

	d, err := s.deliveries.Get(ctx, req.DeliveryID)
	if err != nil {
		return Issue{}, err
	}
	if d.Status != delivery.StatusDispatched && d.Status != delivery.StatusDeliveredWithIssues {
		return Issue{}, fmt.Errorf("%w: issues can only be opened for dispatched or issue-flagged deliveries, delivery is %s",
			httpx.ErrConflict, d.Status)
	}

	linesByID := make(map[int64]delivery.DeliveryLine, len(d.Lines))
	for _, l := range d.Lines {
		linesByID[l.ID] = l
	}

	issue := Issue{
		DeliveryID: d.ID,
		Direction:  d.Direction,
		Type:       req.Type,
		Resolution: req.Resolution,
		Status:     StatusPending,
		Remarks:    req.Remarks,
		CreatedBy:  shared.ActorID(ctx),
	}
	for _, rl := range req.Lines {
		dl, ok := linesByID[rl.DeliveryLineID]
		if !ok {
			return Issue{}, fmt.Errorf("%w: delivery line %d does not belong to delivery %d",
				httpx.ErrValidation, rl.DeliveryLineID, d.ID)
		}
		if rl.Quantity < 0 || rl.Quantity > dl.Quantity {
			return Issue{}, fmt.Errorf("%w: line %d quantity %d outside [0, %d]",
				httpx.ErrValidation, rl.DeliveryLineID, rl.Quantity, dl.Quantity)
		}
		if dl.DefectQty() == 0 {
			// Only defective lines carry issue quantities.
			continue
		}
		issue.Lines = append(issue.Lines, IssueLine{
			DeliveryLineID: dl.ID,
			ProductID:      dl.ProductID,
			Quantity:       rl.Quantity,
			UnitPrice:      dl.UnitPrice,
			LineTotal:      pricing.LineTotal(dl.UnitPrice, rl.Quantity, decimal.Zero),
		})
	}

	id, err := s.repo.Create(ctx, issue)
	if err != nil {
		return Issue{}, err
	}
	s.record(ctx, "issue.open", id, map[string]any{"delivery_id": d.ID, "type": req.Type})
	return s.repo.Get(ctx, id)
}

// Resolve transitions PENDING→RESOLVED with a final resolution. Settled line
// quantities, when given, replace the claimed ones; line totals are repriced
// from the snapshotted unit price.
func (s *Service) Resolve(ctx context.Context, id int64, req ResolveIssueRequest) (Issue, error) {
	if !req.Resolution.IsValid() {
		return Issue{}, fmt.Errorf("%w: unknown resolution %q", httpx.ErrValidation, req.Resolution)
	}
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return Issue{}, err
	}
	if issue.Status != StatusPending {
		return Issue{}, fmt.Errorf("%w: issue is already %s", httpx.ErrConflict, issue.Status)
	}

	linesByID := make(map[int64]IssueLine, len(issue.Lines))
	for _, l := range issue.Lines {
		linesByID[l.ID] = l
	}
	for _, rl := range req.Lines {
		il, ok := linesByID[rl.IssueLineID]
		if !ok {
			return Issue{}, fmt.Errorf("%w: line %d does not belong to issue %d",
				httpx.ErrValidation, rl.IssueLineID, id)
		}
		if rl.Quantity < 0 {
			return Issue{}, fmt.Errorf("%w: line %d quantity %d is negative",
				httpx.ErrValidation, rl.IssueLineID, rl.Quantity)
		}
		total := pricing.LineTotal(il.UnitPrice, rl.Quantity, decimal.Zero)
		if err := s.repo.UpdateLine(ctx, rl.IssueLineID, rl.Quantity, total); err != nil {
			return Issue{}, err
		}
	}

	now := time.Now()
	updates := map[string]any{
		"resolution":  req.Resolution,
		"resolved_at": now,
	}
	if strings.TrimSpace(req.Remarks) != "" {
		updates["remarks"] = req.Remarks
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusResolved, updates); err != nil {
		return Issue{}, err
	}
	s.record(ctx, "issue.resolve", id, map[string]any{"resolution": req.Resolution})
	return s.repo.Get(ctx, id)
}

// Cancel transitions PENDING→CANCELLED.
func (s *Service) Cancel(ctx context.Context, id int64) (Issue, error) {
	issue, err := s.repo.Get(ctx, id)
	if err != nil {
		return Issue{}, err
	}
	if issue.Status != StatusPending {
		return Issue{}, fmt.Errorf("%w: issue is already %s", httpx.ErrConflict, issue.Status)
	}
	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled, map[string]any{"cancelled_at": now}); err != nil {
		return Issue{}, err
	}
	s.record(ctx, "issue.cancel", id, nil)
	return s.repo.Get(ctx, id)
}

// HasOpenIssue reports whether a PENDING issue references the delivery. The
// delivery service consults this before allowing a with-issues completion.
func (s *Service) HasOpenIssue(ctx context.Context, deliveryID int64) (bool, error) {
	n, err := s.repo.CountOpenByDelivery(ctx, deliveryID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get retrieves one issue with lines.
func (s *Service) Get(ctx context.Context, id int64) (Issue, error) {
	return s.repo.Get(ctx, id)
}

// List returns issues matching filters.
func (s *Service) List(ctx context.Context, req ListIssuesRequest) ([]Issue, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) record(ctx context.Context, action string, issueID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorID(ctx),
		Action:   action,
		Entity:   "issue",
		EntityID: fmt.Sprintf("%d", issueID),
		Meta:     meta,
	})
}
