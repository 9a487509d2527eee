package reports

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort runs the aggregate queries.
type RepositoryPort interface {
	SalesSummary(ctx context.Context, req SalesRequest) (SalesReport, error)
}

// Service coordinates report queries with the cache layer.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService wires a RepositoryPort with a Cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Sales returns the cached sales report for a range, computing it on a miss.
func (s *Service) Sales(ctx context.Context, req SalesRequest) (SalesReport, error) {
	req = req.Normalize(time.Now())

	key, err := s.cache.BuildKey(ctx, keySales(req)...)
	if err != nil {
		return SalesReport{}, err
	}
	var report SalesReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
		return s.repo.SalesSummary(ctx, req)
	})
	return report, err
}

// Invalidate drops all cached reports. Called when an invoice lands.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Warm precomputes the ranges the dashboard opens with: the last seven days,
// the current month and the previous month.
func (s *Service) Warm(ctx context.Context) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	ranges := []SalesRequest{
		{From: now.AddDate(0, 0, -7), To: now},
		{From: monthStart, To: now},
		{From: monthStart.AddDate(0, -1, 0), To: monthStart.Add(-time.Second)},
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		req := r
		g.Go(func() error {
			_, err := s.Sales(ctx, req)
			return err
		})
	}
	return g.Wait()
}
