package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/reports"
)

type fakeRepo struct {
	calls int
}

func (f *fakeRepo) SalesSummary(ctx context.Context, req reports.SalesRequest) (reports.SalesReport, error) {
	f.calls++
	return reports.SalesReport{From: req.From, To: req.To, InvoiceCount: 3, TotalQuantity: 42}, nil
}

func newService(t *testing.T) (*reports.Service, *fakeRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := &fakeRepo{}
	return reports.NewService(repo, reports.NewCache(client, time.Minute)), repo
}

func TestSalesCachesResult(t *testing.T) {
	service, repo := newService(t)
	req := reports.SalesRequest{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	first, err := service.Sales(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(3), first.InvoiceCount)

	second, err := service.Sales(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.InvoiceCount, second.InvoiceCount)
	require.Equal(t, 1, repo.calls, "second read must hit the cache")
}

func TestInvalidateForcesRecompute(t *testing.T) {
	service, repo := newService(t)
	req := reports.SalesRequest{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
	}

	_, err := service.Sales(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, service.Invalidate(context.Background()))

	_, err = service.Sales(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls, "bumped version must orphan the old key")
}

func TestWarmPrecomputesRanges(t *testing.T) {
	service, repo := newService(t)

	require.NoError(t, service.Warm(context.Background()))
	require.Equal(t, 3, repo.calls)

	// The current-month range is now hot.
	_, err := service.Sales(context.Background(), reports.SalesRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, repo.calls)
}

func TestNormalizeSwapsInvertedRange(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	req := reports.SalesRequest{
		From: now,
		To:   now.AddDate(0, 0, -10),
	}.Normalize(now)
	require.True(t, req.From.Before(req.To))
}
