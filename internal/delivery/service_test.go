package delivery_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

type fakeRepo struct {
	deliveries map[int64]*delivery.Delivery
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{deliveries: map[int64]*delivery.Delivery{}, nextID: 1}
}

func (f *fakeRepo) add(d delivery.Delivery) int64 {
	d.ID = f.nextID
	f.nextID++
	for i := range d.Lines {
		d.Lines[i].ID = f.nextID
		d.Lines[i].DeliveryID = d.ID
		f.nextID++
	}
	f.deliveries[d.ID] = &d
	return d.ID
}

func (f *fakeRepo) snapshot() map[int64]*delivery.Delivery {
	out := make(map[int64]*delivery.Delivery, len(f.deliveries))
	for id, d := range f.deliveries {
		cp := *d
		cp.Lines = append([]delivery.DeliveryLine(nil), d.Lines...)
		out[id] = &cp
	}
	return out
}

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, delivery.TxRepository) error) error {
	staged := &fakeRepo{deliveries: f.snapshot(), nextID: f.nextID}
	if err := fn(ctx, &fakeTx{repo: staged}); err != nil {
		return err
	}
	f.deliveries = staged.deliveries
	f.nextID = staged.nextID
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (delivery.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return delivery.Delivery{}, httpx.ErrNotFound
	}
	cp := *d
	cp.Lines = append([]delivery.DeliveryLine(nil), d.Lines...)
	return cp, nil
}

func (f *fakeRepo) GetLines(ctx context.Context, deliveryID int64) ([]delivery.DeliveryLine, error) {
	d, err := f.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	return d.Lines, nil
}

func (f *fakeRepo) List(ctx context.Context, req delivery.ListDeliveriesRequest) ([]delivery.Delivery, int, error) {
	var out []delivery.Delivery
	for _, d := range f.deliveries {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListPendingInventoryPosts(ctx context.Context, limit int) ([]int64, error) {
	var out []int64
	for id, d := range f.deliveries {
		if d.Direction == delivery.DirectionInbound && d.Status.IsTerminal() && d.InventoryPostedAt == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetInventoryPostedAt(ctx context.Context, id int64, at time.Time) error {
	d, ok := f.deliveries[id]
	if !ok {
		return httpx.ErrNotFound
	}
	d.InventoryPostedAt = &at
	return nil
}

func (f *fakeRepo) CreateInTx(ctx context.Context, tx pgx.Tx, d delivery.Delivery) (int64, error) {
	return f.add(d), nil
}

type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) UpdateStatus(ctx context.Context, id int64, status delivery.Status, updates map[string]any) error {
	d, ok := t.repo.deliveries[id]
	if !ok {
		return httpx.ErrNotFound
	}
	d.Status = status
	if v, ok := updates["dispatched_at"].(time.Time); ok {
		d.DispatchedAt = &v
	}
	if v, ok := updates["delivered_at"].(time.Time); ok {
		d.DeliveredAt = &v
	}
	return nil
}

func (t *fakeTx) UpdateLineReview(ctx context.Context, lineID int64, acceptedQty int64, expiry *time.Time) error {
	for _, d := range t.repo.deliveries {
		for i := range d.Lines {
			if d.Lines[i].ID == lineID {
				qty := acceptedQty
				d.Lines[i].AcceptedQty = &qty
				if expiry != nil {
					d.Lines[i].ExpiryDate = expiry
				}
				return nil
			}
		}
	}
	return httpx.ErrNotFound
}

func (t *fakeTx) Tx() pgx.Tx { return nil }

type fakeInvoices struct {
	created []int64
	fail    bool
}

func (f *fakeInvoices) CreateForDelivery(ctx context.Context, tx pgx.Tx, d delivery.Delivery) (int64, error) {
	if f.fail {
		return 0, errors.New("invoice insert failed")
	}
	f.created = append(f.created, d.ID)
	return int64(len(f.created)), nil
}

type fakeInventory struct {
	inputs []delivery.InventoryPostInput
	fail   bool
}

func (f *fakeInventory) PostAcceptedLots(ctx context.Context, input delivery.InventoryPostInput) error {
	if f.fail {
		return errors.New("lot insert failed")
	}
	f.inputs = append(f.inputs, input)
	return nil
}

type fakeIssues struct {
	open bool
}

func (f *fakeIssues) HasOpenIssue(ctx context.Context, deliveryID int64) (bool, error) {
	return f.open, nil
}

type fakeCompleter struct {
	completed []int64
}

func (f *fakeCompleter) CompleteOrder(ctx context.Context, tx pgx.Tx, orderID int64) error {
	f.completed = append(f.completed, orderID)
	return nil
}

type fakeJobs struct {
	enqueued []int64
}

func (f *fakeJobs) EnqueueInventoryRepost(ctx context.Context, deliveryID int64) error {
	f.enqueued = append(f.enqueued, deliveryID)
	return nil
}

type harness struct {
	repo      *fakeRepo
	service   *delivery.Service
	invoices  *fakeInvoices
	inventory *fakeInventory
	issues    *fakeIssues
	orders    *fakeCompleter
	jobs      *fakeJobs
}

func newHarness() *harness {
	h := &harness{
		repo:      newFakeRepo(),
		invoices:  &fakeInvoices{},
		inventory: &fakeInventory{},
		issues:    &fakeIssues{},
		orders:    &fakeCompleter{},
		jobs:      &fakeJobs{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.service = delivery.NewService(logger, h.repo, nil)
	h.service.SetInvoicePort(h.invoices)
	h.service.SetInventoryPort(h.inventory)
	h.service.SetIssuePort(h.issues)
	h.service.SetOrderCompleter(h.orders)
	h.service.SetJobPort(h.jobs)
	return h
}

func seedDelivery(repo *fakeRepo, direction delivery.Direction, status delivery.Status) int64 {
	return repo.add(delivery.Delivery{
		Number:         "DLV-TEST-1",
		Direction:      direction,
		OrderID:        7,
		CounterpartyID: 3,
		Status:         status,
		Lines: []delivery.DeliveryLine{
			{ProductID: 1, ProductName: "Amoxicillin 250mg", Unit: "box", Quantity: 10, UnitPrice: decimal.RequireFromString("12.50")},
			{ProductID: 2, ProductName: "Syringe 5ml", Unit: "pack", Quantity: 4, UnitPrice: decimal.RequireFromString("3.00")},
		},
	})
}

func reviewAll(t *testing.T, h *harness, id int64, defects int64, withExpiry bool) {
	t.Helper()
	d, err := h.repo.Get(context.Background(), id)
	require.NoError(t, err)
	for i, l := range d.Lines {
		accepted := l.Quantity
		if i == 0 {
			accepted -= defects
		}
		req := delivery.ReviewLineRequest{AcceptedQty: accepted}
		if withExpiry {
			exp := time.Now().AddDate(1, 0, 0)
			req.ExpiryDate = &exp
		}
		_, err := h.service.ReviewLine(context.Background(), id, l.ID, req)
		require.NoError(t, err)
	}
}

func TestDispatch(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusPending)

	d, err := h.service.Dispatch(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusDispatched, d.Status)
	require.NotNil(t, d.DispatchedAt)

	_, err = h.service.Dispatch(context.Background(), id)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestReviewLineClampsAccepted(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	lines, err := h.repo.GetLines(context.Background(), id)
	require.NoError(t, err)

	d, err := h.service.ReviewLine(context.Background(), id, lines[0].ID, delivery.ReviewLineRequest{AcceptedQty: 99})
	require.NoError(t, err)
	require.Equal(t, lines[0].Quantity, *d.Lines[0].AcceptedQty)
	require.Zero(t, d.Lines[0].DefectQty())
}

func TestReviewLineRequiresDispatched(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusPending)
	lines, err := h.repo.GetLines(context.Background(), id)
	require.NoError(t, err)

	_, err = h.service.ReviewLine(context.Background(), id, lines[0].ID, delivery.ReviewLineRequest{AcceptedQty: 5})
	require.ErrorIs(t, err, delivery.ErrNotDispatched)
}

func TestMarkDeliveredRejectsUnreviewedLines(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)

	_, err := h.service.MarkDelivered(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrUnreviewedLines)

	d, err := h.repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusDispatched, d.Status, "rejection must not mutate")
}

func TestMarkDeliveredRejectsDefects(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 2, false)

	_, err := h.service.MarkDelivered(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrHasDefects)
}

func TestMarkDeliveredRequiresExpiryOnInbound(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, false)

	_, err := h.service.MarkDelivered(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrMissingExpiry)
}

func TestMarkDeliveredOutboundCreatesInvoiceAndCompletesOrder(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, false)

	d, err := h.service.MarkDelivered(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusDelivered, d.Status)
	require.NotNil(t, d.DeliveredAt)
	require.Equal(t, []int64{id}, h.invoices.created)
	require.Equal(t, []int64{int64(7)}, h.orders.completed)
	require.Empty(t, h.inventory.inputs, "outbound deliveries never post lots")
}

func TestMarkDeliveredInvoiceFailureRollsBack(t *testing.T) {
	h := newHarness()
	h.invoices.fail = true
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, false)

	_, err := h.service.MarkDelivered(context.Background(), id)
	require.Error(t, err)

	d, getErr := h.repo.Get(context.Background(), id)
	require.NoError(t, getErr)
	require.Equal(t, delivery.StatusDispatched, d.Status, "invoice failure must roll the status back")
	require.Empty(t, h.orders.completed)
}

func TestMarkDeliveredInboundPostsLots(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, true)

	d, err := h.service.MarkDelivered(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusDelivered, d.Status)
	require.NotNil(t, d.InventoryPostedAt)
	require.Len(t, h.inventory.inputs, 1)
	require.Len(t, h.inventory.inputs[0].Lots, 2)
	require.Empty(t, h.invoices.created, "inbound deliveries are not invoiced")
}

func TestMarkDeliveredInventoryFailureKeepsStatusAndSchedulesRepost(t *testing.T) {
	h := newHarness()
	h.inventory.fail = true
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, true)

	d, err := h.service.MarkDelivered(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrInventoryPostFailed)
	require.Equal(t, delivery.StatusDelivered, d.Status, "delivery keeps its terminal status")
	require.Nil(t, d.InventoryPostedAt)
	require.Equal(t, []int64{id}, h.jobs.enqueued)

	pending, err := h.service.PendingInventoryPosts(context.Background(), 10)
	require.NoError(t, err)
	require.Contains(t, pending, id)
}

func TestRepostInventory(t *testing.T) {
	h := newHarness()
	h.inventory.fail = true
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, true)

	_, err := h.service.MarkDelivered(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrInventoryPostFailed)

	h.inventory.fail = false
	d, err := h.service.RepostInventory(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, d.InventoryPostedAt)
	require.Len(t, h.inventory.inputs, 1)

	_, err = h.service.RepostInventory(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrInventoryPosted)
}

func TestRepostInventoryRejectsOutbound(t *testing.T) {
	h := newHarness()
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDelivered)

	_, err := h.service.RepostInventory(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrNotInboundDelivery)
}

func TestMarkDeliveredWithIssuesRequiresDefects(t *testing.T) {
	h := newHarness()
	h.issues.open = true
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 0, false)

	_, err := h.service.MarkDeliveredWithIssues(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrNoDefects)
}

func TestMarkDeliveredWithIssuesRequiresOpenIssue(t *testing.T) {
	h := newHarness()
	h.issues.open = false
	id := seedDelivery(h.repo, delivery.DirectionOutbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 2, false)

	_, err := h.service.MarkDeliveredWithIssues(context.Background(), id)
	require.ErrorIs(t, err, delivery.ErrNoOpenIssue)
}

func TestMarkDeliveredWithIssuesPostsAcceptedPortion(t *testing.T) {
	h := newHarness()
	h.issues.open = true
	id := seedDelivery(h.repo, delivery.DirectionInbound, delivery.StatusDispatched)
	reviewAll(t, h, id, 3, true)

	d, err := h.service.MarkDeliveredWithIssues(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, delivery.StatusDeliveredWithIssues, d.Status)
	require.Equal(t, []int64{int64(7)}, h.orders.completed)
	require.Len(t, h.inventory.inputs, 1)

	var posted int64
	for _, lot := range h.inventory.inputs[0].Lots {
		posted += lot.Quantity
	}
	require.Equal(t, int64(11), posted, "only the accepted portion reaches inventory")
}
