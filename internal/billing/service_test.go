package billing_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/billing"
	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

type fakeRepo struct {
	invoices []billing.Invoice
}

func (f *fakeRepo) CreateInTx(ctx context.Context, tx pgx.Tx, inv billing.Invoice) (int64, error) {
	for _, existing := range f.invoices {
		if existing.DeliveryID == inv.DeliveryID {
			return 0, httpx.ErrDuplicate
		}
	}
	inv.ID = int64(len(f.invoices) + 1)
	f.invoices = append(f.invoices, inv)
	return inv.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (billing.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return billing.Invoice{}, httpx.ErrNotFound
}

func (f *fakeRepo) GetByDelivery(ctx context.Context, deliveryID int64) (billing.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.DeliveryID == deliveryID {
			return inv, nil
		}
	}
	return billing.Invoice{}, httpx.ErrNotFound
}

func (f *fakeRepo) List(ctx context.Context, req billing.ListInvoicesRequest) ([]billing.Invoice, int, error) {
	return f.invoices, len(f.invoices), nil
}

type fakeReportCache struct {
	bumps int
}

func (f *fakeReportCache) Invalidate(ctx context.Context) error {
	f.bumps++
	return nil
}

func outboundDelivery() delivery.Delivery {
	accepted8 := int64(8)
	accepted4 := int64(4)
	return delivery.Delivery{
		ID:             9,
		Number:         "DLV-OUT-9",
		OrderID:        7,
		CounterpartyID: 3,
		Direction:      delivery.DirectionOutbound,
		Status:         delivery.StatusDispatched,
		Lines: []delivery.DeliveryLine{
			{ProductID: 1, Quantity: 10, AcceptedQty: &accepted8,
				UnitPrice: decimal.RequireFromString("12.50"), DiscountPct: decimal.RequireFromString("10")},
			{ProductID: 2, Quantity: 4, AcceptedQty: &accepted4,
				UnitPrice: decimal.RequireFromString("3.00")},
		},
	}
}

func TestCreateForDeliveryPricesAcceptedQuantities(t *testing.T) {
	repo := &fakeRepo{}
	service := billing.NewService(repo, nil)

	id, err := service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.NoError(t, err)

	inv, err := service.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, int64(9), inv.DeliveryID)
	require.Equal(t, int64(7), inv.OrderID)
	require.Equal(t, int64(3), inv.CustomerID)
	require.Equal(t, int64(12), inv.TotalQuantity)
	require.True(t, inv.TotalValue.Equal(decimal.RequireFromString("102.00")), "got %s", inv.TotalValue)
	require.True(t, inv.TotalDiscount.Equal(decimal.RequireFromString("10.00")), "got %s", inv.TotalDiscount)
	require.NotEmpty(t, inv.Number)
}

func TestCreateForDeliveryInvalidatesReportCache(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeReportCache{}
	service := billing.NewService(repo, nil)
	service.SetReportCache(cache)

	_, err := service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.NoError(t, err)
	require.Equal(t, 1, cache.bumps, "a landed invoice drops cached reports")

	_, err = service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	require.Equal(t, 1, cache.bumps, "a failed create does not bump")
}

func TestCreateForDeliveryIsUniquePerDelivery(t *testing.T) {
	repo := &fakeRepo{}
	service := billing.NewService(repo, nil)

	_, err := service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.NoError(t, err)

	_, err = service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestGetByDelivery(t *testing.T) {
	repo := &fakeRepo{}
	service := billing.NewService(repo, nil)

	id, err := service.CreateForDelivery(context.Background(), nil, outboundDelivery())
	require.NoError(t, err)

	inv, err := service.GetByDelivery(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, id, inv.ID)

	_, err = service.GetByDelivery(context.Background(), 404)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
