package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/inventory"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
	"github.com/vetstock-erp/vetstock/internal/shared"
)

type fakeRepo struct {
	lots    []inventory.Lot
	failing bool
}

func (f *fakeRepo) CreateLots(ctx context.Context, input inventory.AcceptDeliveryInput) error {
	if f.failing {
		return errors.New("insert failed")
	}
	for _, l := range input.Lots {
		f.lots = append(f.lots, inventory.Lot{
			ID:         int64(len(f.lots) + 1),
			ProductID:  l.ProductID,
			DeliveryID: input.DeliveryID,
			BatchCode:  input.BatchCode,
			Quantity:   l.Quantity,
			UnitCost:   l.UnitCost,
			ExpiryDate: l.ExpiryDate,
		})
	}
	return nil
}

func (f *fakeRepo) List(ctx context.Context, req inventory.ListLotsRequest) ([]inventory.Lot, int, error) {
	var out []inventory.Lot
	for _, l := range f.lots {
		if req.ExpiringBefore != nil && l.ExpiryDate.After(*req.ExpiringBefore) {
			continue
		}
		out = append(out, l)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ExpiringBefore(ctx context.Context, cutoff time.Time) ([]inventory.Lot, error) {
	lots, _, err := f.List(ctx, inventory.ListLotsRequest{ExpiringBefore: &cutoff})
	return lots, err
}

type fakeIdempotency struct {
	keys map[string]bool
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: map[string]bool{}}
}

func (f *fakeIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if f.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	f.keys[key] = true
	return nil
}

func (f *fakeIdempotency) Delete(ctx context.Context, key string) error {
	delete(f.keys, key)
	return nil
}

func validInput() inventory.AcceptDeliveryInput {
	return inventory.AcceptDeliveryInput{
		DeliveryID: 42,
		BatchCode:  "DLV-IN-1700000000",
		Lots: []inventory.LotInput{
			{ProductID: 1, Quantity: 10, UnitCost: decimal.RequireFromString("12.50"), ExpiryDate: time.Now().Add(90 * 24 * time.Hour)},
			{ProductID: 2, Quantity: 5, UnitCost: decimal.RequireFromString("8.00"), ExpiryDate: time.Now().Add(30 * 24 * time.Hour)},
		},
	}
}

func TestAcceptDeliveryCreatesLots(t *testing.T) {
	repo := &fakeRepo{}
	service := inventory.NewService(repo, newFakeIdempotency(), nil)

	require.NoError(t, service.AcceptDelivery(context.Background(), validInput()))
	require.Len(t, repo.lots, 2)
	require.Equal(t, "DLV-IN-1700000000", repo.lots[0].BatchCode)
	require.Equal(t, int64(42), repo.lots[0].DeliveryID)
}

func TestAcceptDeliveryIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	service := inventory.NewService(repo, newFakeIdempotency(), nil)

	input := validInput()
	require.NoError(t, service.AcceptDelivery(context.Background(), input))
	require.NoError(t, service.AcceptDelivery(context.Background(), input))
	require.Len(t, repo.lots, 2, "second post must not duplicate lots")
}

func TestAcceptDeliveryRejectsBadLots(t *testing.T) {
	service := inventory.NewService(&fakeRepo{}, newFakeIdempotency(), nil)

	zeroQty := validInput()
	zeroQty.Lots[0].Quantity = 0
	require.ErrorIs(t, service.AcceptDelivery(context.Background(), zeroQty), httpx.ErrValidation)

	noExpiry := validInput()
	noExpiry.Lots[1].ExpiryDate = time.Time{}
	require.ErrorIs(t, service.AcceptDelivery(context.Background(), noExpiry), httpx.ErrValidation)

	empty := validInput()
	empty.Lots = nil
	require.ErrorIs(t, service.AcceptDelivery(context.Background(), empty), httpx.ErrValidation)
}

func TestAcceptDeliveryReleasesKeyOnFailure(t *testing.T) {
	repo := &fakeRepo{failing: true}
	idem := newFakeIdempotency()
	service := inventory.NewService(repo, idem, nil)

	input := validInput()
	require.Error(t, service.AcceptDelivery(context.Background(), input))
	require.Empty(t, idem.keys, "failed insert must release the idempotency key")

	repo.failing = false
	require.NoError(t, service.AcceptDelivery(context.Background(), input))
	require.Len(t, repo.lots, 2)
}

func TestExpiringLots(t *testing.T) {
	repo := &fakeRepo{}
	service := inventory.NewService(repo, newFakeIdempotency(), nil)

	input := validInput()
	require.NoError(t, service.AcceptDelivery(context.Background(), input))

	lots, err := service.ExpiringLots(context.Background(), 45*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.Equal(t, int64(2), lots[0].ProductID)
}
