package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icaffe-pos/pos-device-api/models"
)

func TestHealDemotesOrderWithActiveItems(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusReady)
	seedItem(t, cache, "item-1", "ord-1", models.ItemStatusInProgress)
	seedItem(t, cache, "item-2", "ord-1", models.ItemStatusReady)

	assert.Equal(t, 1, eng.Heal(context.Background()))

	order := mustGetOrder(t, cache, "ord-1")
	assert.Equal(t, models.OrderStatusInProgress, order.OrderStatus,
		"an order with items still cooking cannot claim to be ready")
	assert.True(t, order.PendingSync, "corrections ride the next push")
}

func TestHealPromotesFinishedOrderToReady(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusInProgress)
	seedItem(t, cache, "item-1", "ord-1", models.ItemStatusCompleted)
	seedItem(t, cache, "item-2", "ord-1", models.ItemStatusReady)

	assert.Equal(t, 1, eng.Heal(context.Background()))

	order := mustGetOrder(t, cache, "ord-1")
	assert.Equal(t, models.OrderStatusReady, order.OrderStatus)
	assert.True(t, order.PendingSync)
}

func TestHealSkipsOrdersWithoutCachedItems(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusReady)

	assert.Equal(t, 0, eng.Heal(context.Background()))
	assert.Equal(t, models.OrderStatusReady, mustGetOrder(t, cache, "ord-1").OrderStatus)
}

func TestHealLeavesConsistentOrdersAlone(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusInProgress)
	seedItem(t, cache, "item-1", "ord-1", models.ItemStatusInProgress)
	seedOrder(t, cache, "ord-2", models.OrderStatusReady)
	seedItem(t, cache, "item-2", "ord-2", models.ItemStatusReady)
	seedItem(t, cache, "item-3", "ord-2", models.ItemStatusCompleted)

	assert.Equal(t, 0, eng.Heal(context.Background()))
	assert.Equal(t, models.OrderStatusInProgress, mustGetOrder(t, cache, "ord-1").OrderStatus)
	assert.Equal(t, models.OrderStatusReady, mustGetOrder(t, cache, "ord-2").OrderStatus)
	assert.False(t, mustGetOrder(t, cache, "ord-1").PendingSync)
}

func TestHealIgnoresTerminalOrders(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusDelivered)
	seedItem(t, cache, "item-1", "ord-1", models.ItemStatusInProgress)
	seedOrder(t, cache, "ord-2", models.OrderStatusCancelled)
	seedItem(t, cache, "item-2", "ord-2", models.ItemStatusInProgress)

	assert.Equal(t, 0, eng.Heal(context.Background()))
	assert.Equal(t, models.OrderStatusDelivered, mustGetOrder(t, cache, "ord-1").OrderStatus)
	assert.Equal(t, models.OrderStatusCancelled, mustGetOrder(t, cache, "ord-2").OrderStatus)
}

func TestHealCorrectsMultipleOrdersInOnePass(t *testing.T) {
	eng, _, _, cache := newTestEngine(t)
	seedOrder(t, cache, "ord-1", models.OrderStatusReady)
	seedItem(t, cache, "item-1", "ord-1", models.ItemStatusNew)
	seedOrder(t, cache, "ord-2", models.OrderStatusInProgress)
	seedItem(t, cache, "item-2", "ord-2", models.ItemStatusCompleted)

	require.Equal(t, 2, eng.Heal(context.Background()))
	assert.Equal(t, models.OrderStatusInProgress, mustGetOrder(t, cache, "ord-1").OrderStatus)
	assert.Equal(t, models.OrderStatusReady, mustGetOrder(t, cache, "ord-2").OrderStatus)
}
