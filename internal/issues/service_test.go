package issues_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/issues"
	"github.com/vetstock-erp/vetstock/internal/platform/httpx"
)

type fakeRepo struct {
	issues map[int64]*issues.Issue
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{issues: map[int64]*issues.Issue{}, nextID: 1}
}

func (f *fakeRepo) Create(ctx context.Context, issue issues.Issue) (int64, error) {
	issue.ID = f.nextID
	f.nextID++
	issue.CreatedAt = time.Now()
	for i := range issue.Lines {
		issue.Lines[i].ID = f.nextID
		issue.Lines[i].IssueID = issue.ID
		f.nextID++
	}
	f.issues[issue.ID] = &issue
	return issue.ID, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int64) (issues.Issue, error) {
	i, ok := f.issues[id]
	if !ok {
		return issues.Issue{}, httpx.ErrNotFound
	}
	return *i, nil
}

func (f *fakeRepo) List(ctx context.Context, req issues.ListIssuesRequest) ([]issues.Issue, int, error) {
	var out []issues.Issue
	for _, i := range f.issues {
		out = append(out, *i)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CountOpenByDelivery(ctx context.Context, deliveryID int64) (int, error) {
	n := 0
	for _, i := range f.issues {
		if i.DeliveryID == deliveryID && i.Status == issues.StatusPending {
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) UpdateLine(ctx context.Context, lineID int64, quantity int64, lineTotal decimal.Decimal) error {
	for _, i := range f.issues {
		for j := range i.Lines {
			if i.Lines[j].ID == lineID {
				i.Lines[j].Quantity = quantity
				i.Lines[j].LineTotal = lineTotal
				return nil
			}
		}
	}
	return httpx.ErrNotFound
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id int64, status issues.Status, updates map[string]any) error {
	i, ok := f.issues[id]
	if !ok {
		return httpx.ErrNotFound
	}
	i.Status = status
	if v, ok := updates["resolution"].(issues.Resolution); ok {
		i.Resolution = v
	}
	if v, ok := updates["resolved_at"].(time.Time); ok {
		i.ResolvedAt = &v
	}
	if v, ok := updates["cancelled_at"].(time.Time); ok {
		i.CancelledAt = &v
	}
	if v, ok := updates["remarks"].(string); ok {
		i.Remarks = v
	}
	return nil
}

type fakeDeliveries struct {
	deliveries map[int64]delivery.Delivery
}

func (f *fakeDeliveries) Get(ctx context.Context, id int64) (delivery.Delivery, error) {
	d, ok := f.deliveries[id]
	if !ok {
		return delivery.Delivery{}, httpx.ErrNotFound
	}
	return d, nil
}

func dispatchedDelivery() delivery.Delivery {
	accepted7 := int64(7)
	accepted4 := int64(4)
	return delivery.Delivery{
		ID:        5,
		Number:    "DLV-OUT-1",
		Direction: delivery.DirectionOutbound,
		Status:    delivery.StatusDispatched,
		Lines: []delivery.DeliveryLine{
			{ID: 51, ProductID: 1, Quantity: 10, AcceptedQty: &accepted7, UnitPrice: decimal.RequireFromString("12.50")},
			{ID: 52, ProductID: 2, Quantity: 4, AcceptedQty: &accepted4, UnitPrice: decimal.RequireFromString("3.00")},
		},
	}
}

func newService(d delivery.Delivery) (*issues.Service, *fakeRepo) {
	repo := newFakeRepo()
	deliveries := &fakeDeliveries{deliveries: map[int64]delivery.Delivery{d.ID: d}}
	return issues.NewService(repo, deliveries, nil), repo
}

func validOpen() issues.OpenIssueRequest {
	return issues.OpenIssueRequest{
		DeliveryID: 5,
		Type:       issues.TypeDamaged,
		Resolution: issues.ResolutionReshipment,
		Remarks:    "three boxes crushed in transit",
		Lines: []issues.OpenIssueLineRequest{
			{DeliveryLineID: 51, Quantity: 3},
			{DeliveryLineID: 52, Quantity: 0},
		},
	}
}

func TestOpenIssue(t *testing.T) {
	service, _ := newService(dispatchedDelivery())

	issue, err := service.Open(context.Background(), validOpen())
	require.NoError(t, err)
	require.Equal(t, issues.StatusPending, issue.Status)
	require.Equal(t, delivery.DirectionOutbound, issue.Direction)
	require.Len(t, issue.Lines, 1, "defect-free lines are dropped")
	require.Equal(t, int64(51), issue.Lines[0].DeliveryLineID)
	require.True(t, issue.Lines[0].UnitPrice.Equal(decimal.RequireFromString("12.50")),
		"unit price is snapshotted from the delivery line")
	require.True(t, issue.Lines[0].LineTotal.Equal(decimal.RequireFromString("37.50")),
		"line total is price times claimed quantity")

	open, err := service.HasOpenIssue(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, open)
}

func TestOpenIssueValidation(t *testing.T) {
	service, _ := newService(dispatchedDelivery())
	ctx := context.Background()

	badType := validOpen()
	badType.Type = "SPILLED"
	_, err := service.Open(ctx, badType)
	require.ErrorIs(t, err, httpx.ErrValidation)

	noRemarks := validOpen()
	noRemarks.Remarks = "  "
	_, err = service.Open(ctx, noRemarks)
	require.ErrorIs(t, err, httpx.ErrValidation)

	foreignLine := validOpen()
	foreignLine.Lines[0].DeliveryLineID = 999
	_, err = service.Open(ctx, foreignLine)
	require.ErrorIs(t, err, httpx.ErrValidation)

	tooMany := validOpen()
	tooMany.Lines[0].Quantity = 11
	_, err = service.Open(ctx, tooMany)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestOpenIssueRequiresDispatchedOrIssueFlagged(t *testing.T) {
	d := dispatchedDelivery()
	d.Status = delivery.StatusPending
	service, _ := newService(d)

	_, err := service.Open(context.Background(), validOpen())
	require.ErrorIs(t, err, httpx.ErrConflict)

	d.Status = delivery.StatusDeliveredWithIssues
	service, _ = newService(d)
	_, err = service.Open(context.Background(), validOpen())
	require.NoError(t, err, "post-completion claims stay open")
}

func TestResolveIssue(t *testing.T) {
	service, _ := newService(dispatchedDelivery())
	issue, err := service.Open(context.Background(), validOpen())
	require.NoError(t, err)

	resolved, err := service.Resolve(context.Background(), issue.ID, issues.ResolveIssueRequest{
		Resolution: issues.ResolutionRefund,
		Remarks:    "refunded the damaged boxes",
	})
	require.NoError(t, err)
	require.Equal(t, issues.StatusResolved, resolved.Status)
	require.Equal(t, issues.ResolutionRefund, resolved.Resolution)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = service.Resolve(context.Background(), issue.ID, issues.ResolveIssueRequest{Resolution: issues.ResolutionRefund})
	require.ErrorIs(t, err, httpx.ErrConflict)

	open, err := service.HasOpenIssue(context.Background(), 5)
	require.NoError(t, err)
	require.False(t, open)
}

func TestResolveIssueSettlesLineQuantities(t *testing.T) {
	service, _ := newService(dispatchedDelivery())
	issue, err := service.Open(context.Background(), validOpen())
	require.NoError(t, err)
	require.Len(t, issue.Lines, 1)

	resolved, err := service.Resolve(context.Background(), issue.ID, issues.ResolveIssueRequest{
		Resolution: issues.ResolutionRefund,
		Remarks:    "two boxes were salvageable after inspection",
		Lines: []issues.ResolveIssueLineRequest{
			{IssueLineID: issue.Lines[0].ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, issues.StatusResolved, resolved.Status)
	require.Equal(t, int64(1), resolved.Lines[0].Quantity)
	require.True(t, resolved.Lines[0].LineTotal.Equal(decimal.RequireFromString("12.50")),
		"line total is repriced from the settled quantity")
	require.True(t, resolved.Lines[0].UnitPrice.Equal(decimal.RequireFromString("12.50")),
		"the snapshotted unit price is untouched")
}

func TestResolveIssueRejectsForeignLines(t *testing.T) {
	service, _ := newService(dispatchedDelivery())
	issue, err := service.Open(context.Background(), validOpen())
	require.NoError(t, err)

	_, err = service.Resolve(context.Background(), issue.ID, issues.ResolveIssueRequest{
		Resolution: issues.ResolutionRefund,
		Lines:      []issues.ResolveIssueLineRequest{{IssueLineID: 999, Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	got, err := service.Get(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, issues.StatusPending, got.Status, "a rejected settlement leaves the issue open")
}

func TestCancelIssue(t *testing.T) {
	service, _ := newService(dispatchedDelivery())
	issue, err := service.Open(context.Background(), validOpen())
	require.NoError(t, err)

	cancelled, err := service.Cancel(context.Background(), issue.ID)
	require.NoError(t, err)
	require.Equal(t, issues.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	_, err = service.Cancel(context.Background(), issue.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
}
