package products

import (
	"context"
	"fmt"

	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Service handles product business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	if err := validateForm(form); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, form)
}

func (s *Service) Update(ctx context.Context, id int64, form ProductForm) (Product, error) {
	if id <= 0 {
		return Product{}, httpx.ErrNotFound
	}
	if err := validateForm(form); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, form)
}

// Deactivate soft-removes a product so historic order lines stay intact.
func (s *Service) Deactivate(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, httpx.ErrNotFound
	}
	return s.repo.SetActive(ctx, id, false)
}

func validateForm(form ProductForm) error {
	if form.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	return nil
}
