package customers

import (
	"context"

	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Service handles customer business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form CustomerForm) (Customer, error) {
	return s.repo.Create(ctx, form)
}

func (s *Service) Update(ctx context.Context, id int64, form CustomerForm) (Customer, error) {
	if id <= 0 {
		return Customer{}, httpx.ErrNotFound
	}
	return s.repo.Update(ctx, id, form)
}

// Deactivate soft-removes a customer.
func (s *Service) Deactivate(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, httpx.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}
