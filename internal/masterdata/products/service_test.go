package products_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/masterdata/products"
	"github.com/vetstock-erp/vetstock/internal/masterdata/shared"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

type fakeRepo struct {
	nextID int64
	byID   map[int64]products.Product
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, byID: map[int64]products.Product{}}
}

func (f *fakeRepo) List(ctx context.Context, filters shared.ListFilters) ([]products.Product, int, error) {
	out := make([]products.Product, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (products.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) Create(ctx context.Context, form products.ProductForm) (products.Product, error) {
	p := products.Product{
		ID:         f.nextID,
		SKU:        form.SKU,
		Name:       form.Name,
		CategoryID: form.CategoryID,
		Unit:       form.Unit,
		Price:      form.Price,
		Active:     true,
	}
	f.byID[p.ID] = p
	f.nextID++
	return p, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, form products.ProductForm) (products.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	p.SKU = form.SKU
	p.Name = form.Name
	p.Price = form.Price
	f.byID[id] = p
	return p, nil
}

func (f *fakeRepo) SetActive(ctx context.Context, id int64, active bool) (products.Product, error) {
	p, ok := f.byID[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	p.Active = active
	f.byID[id] = p
	return p, nil
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	service := products.NewService(newFakeRepo())

	_, err := service.Create(context.Background(), products.ProductForm{
		SKU:        "AMOX-500",
		Name:       "Amoxicillin 500mg",
		CategoryID: 1,
		Unit:       "box",
		Price:      decimal.NewFromInt(-5),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestDeactivateKeepsRecord(t *testing.T) {
	repo := newFakeRepo()
	service := products.NewService(repo)

	created, err := service.Create(context.Background(), products.ProductForm{
		SKU:        "VAC-RAB-01",
		Name:       "Rabies Vaccine 10 dose",
		CategoryID: 2,
		Unit:       "vial",
		Price:      decimal.RequireFromString("125.50"),
	})
	require.NoError(t, err)

	deactivated, err := service.Deactivate(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, deactivated.Active)

	got, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "VAC-RAB-01", got.SKU)
}
