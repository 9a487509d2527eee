package categories

import (
	"context"
	"fmt"

	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

// Service handles category business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form CategoryForm) (Category, error) {
	return s.repo.Create(ctx, form)
}

func (s *Service) Update(ctx context.Context, id int64, form CategoryForm) (Category, error) {
	if id <= 0 {
		return Category{}, httpx.ErrNotFound
	}
	return s.repo.Update(ctx, id, form)
}

// Deactivate soft-removes a category. Records stay referenced by products.
func (s *Service) Deactivate(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, httpx.ErrNotFound
	}
	c, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return Category{}, fmt.Errorf("deactivate category: %w", err)
	}
	return c, nil
}
