package suppliers

import (
	"context"

	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Service handles supplier business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form SupplierForm) (Supplier, error) {
	return s.repo.Create(ctx, form)
}

func (s *Service) Update(ctx context.Context, id int64, form SupplierForm) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, httpx.ErrNotFound
	}
	return s.repo.Update(ctx, id, form)
}

// Deactivate soft-removes a supplier.
func (s *Service) Deactivate(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, httpx.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}
