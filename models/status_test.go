package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageStatusForColumn(t *testing.T) {
	cases := []struct {
		column UIColumn
		want   OrderStatus
	}{
		{ColumnNew, OrderStatusNew},
		{ColumnInPrep, OrderStatusInProgress},
		{ColumnReady, OrderStatusReady},
		{ColumnShipped, OrderStatusShipped},
		{ColumnDelivered, OrderStatusDelivered},
	}
	for _, tc := range cases {
		got, err := StorageStatusForColumn(tc.column)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := StorageStatusForColumn("kitchen")
	assert.Error(t, err)
}

func TestColumnForStatusRoundTrip(t *testing.T) {
	for _, col := range []UIColumn{ColumnNew, ColumnInPrep, ColumnReady, ColumnShipped, ColumnDelivered} {
		status, err := StorageStatusForColumn(col)
		require.NoError(t, err)
		back, ok := ColumnForStatus(status)
		require.True(t, ok)
		assert.Equal(t, col, back)
	}
}

func TestColumnForStatusAliases(t *testing.T) {
	// pending and new are used interchangeably upstream.
	col, ok := ColumnForStatus(OrderStatusPending)
	require.True(t, ok)
	assert.Equal(t, ColumnNew, col)

	_, ok = ColumnForStatus(OrderStatusCancelled)
	assert.False(t, ok, "cancelled orders have no board column")
}

func TestParseUIColumn(t *testing.T) {
	col, err := ParseUIColumn("in_prep")
	require.NoError(t, err)
	assert.Equal(t, ColumnInPrep, col)

	_, err = ParseUIColumn("in_progress")
	assert.Error(t, err, "storage statuses are not column names")
}

func TestOrderStatusPredicates(t *testing.T) {
	cases := []struct {
		status       OrderStatus
		active       bool
		terminal     bool
		activeEquiv  bool
		acknowledged bool
	}{
		{OrderStatusPending, true, false, true, true},
		{OrderStatusNew, true, false, true, true},
		{OrderStatusInProgress, true, false, true, true},
		{OrderStatusReady, true, false, false, false},
		{OrderStatusShipped, true, false, false, false},
		{OrderStatusDelivered, false, true, false, false},
		{OrderStatusCancelled, false, true, false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.active, tc.status.Active(), "%s.Active()", tc.status)
		assert.Equal(t, tc.terminal, tc.status.Terminal(), "%s.Terminal()", tc.status)
		assert.Equal(t, tc.activeEquiv, tc.status.ActiveEquivalent(), "%s.ActiveEquivalent()", tc.status)
		assert.Equal(t, tc.acknowledged, tc.status.Acknowledged(), "%s.Acknowledged()", tc.status)
	}
}

func TestItemStatusPredicates(t *testing.T) {
	cases := []struct {
		status   ItemStatus
		active   bool
		terminal bool
	}{
		{ItemStatusNew, true, false},
		{ItemStatusPending, true, false},
		{ItemStatusInProgress, true, false},
		{ItemStatusReady, false, true},
		{ItemStatusCompleted, false, true},
		{ItemStatusCancelled, false, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.active, tc.status.Active(), "%s.Active()", tc.status)
		assert.Equal(t, tc.terminal, tc.status.Terminal(), "%s.Terminal()", tc.status)
	}
}

func TestLocalOrderIDs(t *testing.T) {
	id := NewLocalOrderID()
	assert.True(t, IsLocalOrderID(id))
	assert.False(t, IsLocalOrderID("550e8400-e29b-41d4-a716-446655440000"))

	other := NewLocalOrderID()
	assert.NotEqual(t, id, other)
}
