package delivery_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vetstock-erp/vetstock/internal/delivery"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to delivery.Status
		want     bool
	}{
		{delivery.StatusPending, delivery.StatusDispatched, true},
		{delivery.StatusPending, delivery.StatusDelivered, false},
		{delivery.StatusDispatched, delivery.StatusDelivered, true},
		{delivery.StatusDispatched, delivery.StatusDeliveredWithIssues, true},
		{delivery.StatusDispatched, delivery.StatusPending, false},
		{delivery.StatusDelivered, delivery.StatusDispatched, false},
		{delivery.StatusDeliveredWithIssues, delivery.StatusDelivered, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, delivery.CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, s := range []delivery.Status{delivery.StatusDelivered, delivery.StatusDeliveredWithIssues} {
		require.True(t, s.IsTerminal())
		require.Empty(t, delivery.AllowedNext(s))
	}
}

func TestDefectQtyDerivedFromAccepted(t *testing.T) {
	line := delivery.DeliveryLine{Quantity: 10}
	require.False(t, line.Reviewed())
	require.Zero(t, line.DefectQty())

	accepted := int64(7)
	line.AcceptedQty = &accepted
	require.True(t, line.Reviewed())
	require.Equal(t, int64(3), line.DefectQty())
	require.Equal(t, line.Quantity, *line.AcceptedQty+line.DefectQty())
}

func TestClampAccepted(t *testing.T) {
	line := delivery.DeliveryLine{Quantity: 10}
	require.Equal(t, int64(0), line.ClampAccepted(-5))
	require.Equal(t, int64(10), line.ClampAccepted(25))
	require.Equal(t, int64(6), line.ClampAccepted(6))
}
