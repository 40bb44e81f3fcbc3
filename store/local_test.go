package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/icaffe-pos/pos-device-api/models"
)

func newTestCache(t *testing.T) *Local {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.MenuItem{}))
	return NewLocal(db)
}

func sampleOrder(id string, status models.OrderStatus) models.Order {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return models.Order{
		ID:          id,
		BusinessID:  "biz-test",
		OrderNumber: 42,
		OrderStatus: status,
		TotalAmount: 12.5,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestGetOrderReturnsNilWhenNotCached(t *testing.T) {
	cache := newTestCache(t)

	order, err := cache.GetOrder("missing")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestPutOrderUpserts(t *testing.T) {
	cache := newTestCache(t)
	order := sampleOrder("ord-1", models.OrderStatusNew)
	require.NoError(t, cache.PutOrder(&order))

	order.OrderStatus = models.OrderStatusReady
	order.TotalAmount = 20
	require.NoError(t, cache.PutOrder(&order))

	got, err := cache.GetOrder("ord-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.OrderStatusReady, got.OrderStatus)
	assert.Equal(t, 20.0, got.TotalAmount)
}

func TestUpdateOrderFieldsIsPartial(t *testing.T) {
	cache := newTestCache(t)
	order := sampleOrder("ord-1", models.OrderStatusNew)
	require.NoError(t, cache.PutOrder(&order))

	require.NoError(t, cache.UpdateOrderFields("ord-1", map[string]interface{}{
		"order_status": models.OrderStatusInProgress,
		"pending_sync": true,
	}))

	got, err := cache.GetOrder("ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, got.OrderStatus)
	assert.True(t, got.PendingSync)
	assert.Equal(t, 12.5, got.TotalAmount, "untouched columns keep their values")
	assert.True(t, got.UpdatedAt.Equal(order.UpdatedAt), "updated_at moves only when the caller says so")
}

func TestDeleteOrderCascadesToItems(t *testing.T) {
	cache := newTestCache(t)
	order := sampleOrder("ord-1", models.OrderStatusNew)
	require.NoError(t, cache.CreateOrderWithItems(&order, []models.OrderItem{
		{ID: "item-1", OrderID: "ord-1", Name: "Latte", Price: 4.5, Quantity: 1, ItemStatus: models.ItemStatusNew},
	}))

	require.NoError(t, cache.DeleteOrder("ord-1"))

	got, err := cache.GetOrder("ord-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	items, err := cache.ItemsByOrder("ord-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRekeyOrderAdoptsNewIDWithItems(t *testing.T) {
	cache := newTestCache(t)
	order := sampleOrder("L-draft-1", models.OrderStatusInProgress)
	order.PendingSync = true
	require.NoError(t, cache.CreateOrderWithItems(&order, []models.OrderItem{
		{ID: "item-1", OrderID: "L-draft-1", Name: "Latte", Price: 4.5, Quantity: 1, ItemStatus: models.ItemStatusInProgress},
		{ID: "item-2", OrderID: "L-draft-1", Name: "Mocha", Price: 5, Quantity: 1, ItemStatus: models.ItemStatusInProgress},
	}))

	require.NoError(t, cache.RekeyOrder("L-draft-1", "srv-42"))

	old, err := cache.GetOrder("L-draft-1")
	require.NoError(t, err)
	assert.Nil(t, old)

	adopted, err := cache.GetOrder("srv-42")
	require.NoError(t, err)
	require.NotNil(t, adopted)
	assert.False(t, adopted.PendingSync, "adoption confirms the record")
	assert.Equal(t, models.OrderStatusInProgress, adopted.OrderStatus)

	items, err := cache.ItemsByOrder("srv-42")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	orphans, err := cache.ItemsByOrder("L-draft-1")
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestPendingOrdersFiltersByFlagAndBusiness(t *testing.T) {
	cache := newTestCache(t)
	pending := sampleOrder("ord-1", models.OrderStatusReady)
	pending.PendingSync = true
	require.NoError(t, cache.PutOrder(&pending))
	confirmed := sampleOrder("ord-2", models.OrderStatusReady)
	require.NoError(t, cache.PutOrder(&confirmed))
	foreign := sampleOrder("ord-3", models.OrderStatusReady)
	foreign.BusinessID = "biz-other"
	foreign.PendingSync = true
	require.NoError(t, cache.PutOrder(&foreign))

	got, err := cache.PendingOrders("biz-test")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ord-1", got[0].ID)
}

func TestOrdersByBusinessSince(t *testing.T) {
	cache := newTestCache(t)
	recent := sampleOrder("ord-1", models.OrderStatusNew)
	require.NoError(t, cache.PutOrder(&recent))
	old := sampleOrder("ord-2", models.OrderStatusNew)
	old.CreatedAt = recent.CreatedAt.Add(-48 * time.Hour)
	require.NoError(t, cache.PutOrder(&old))

	got, err := cache.OrdersByBusinessSince("biz-test", recent.CreatedAt.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ord-1", got[0].ID)
}

func TestBulkPutItemsUpserts(t *testing.T) {
	cache := newTestCache(t)
	item := models.OrderItem{
		ID: "item-1", OrderID: "ord-1", Name: "Latte", Price: 4.5,
		Quantity: 1, ItemStatus: models.ItemStatusNew,
	}
	require.NoError(t, cache.BulkPutItems([]models.OrderItem{item}))

	item.ItemStatus = models.ItemStatusReady
	require.NoError(t, cache.BulkPutItems([]models.OrderItem{item}))

	items, err := cache.ItemsByOrder("ord-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.ItemStatusReady, items[0].ItemStatus)
}

func TestBulkPutItemsHandlesLargeBatches(t *testing.T) {
	cache := newTestCache(t)
	items := make([]models.OrderItem, 250)
	for i := range items {
		items[i] = models.OrderItem{
			ID:         fmt.Sprintf("item-%d", i),
			OrderID:    "ord-big",
			Name:       "Latte",
			Price:      4.5,
			Quantity:   1,
			ItemStatus: models.ItemStatusNew,
		}
	}
	require.NoError(t, cache.BulkPutItems(items))

	got, err := cache.ItemsByOrder("ord-big")
	require.NoError(t, err)
	assert.Len(t, got, 250)
}

func TestUpdateItemsStatusStampsServedAt(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.BulkPutItems([]models.OrderItem{
		{ID: "item-1", OrderID: "ord-1", Name: "Latte", Price: 4.5, Quantity: 1, ItemStatus: models.ItemStatusInProgress},
		{ID: "item-2", OrderID: "ord-1", Name: "Mocha", Price: 5, Quantity: 1, ItemStatus: models.ItemStatusInProgress},
	}))

	servedAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	require.NoError(t, cache.UpdateItemsStatus([]string{"item-1"}, models.ItemStatusCompleted, &servedAt))

	items, err := cache.ItemsByOrder("ord-1")
	require.NoError(t, err)
	for _, item := range items {
		switch item.ID {
		case "item-1":
			assert.Equal(t, models.ItemStatusCompleted, item.ItemStatus)
			require.NotNil(t, item.ServedAt)
			assert.WithinDuration(t, servedAt, *item.ServedAt, time.Second)
		case "item-2":
			assert.Equal(t, models.ItemStatusInProgress, item.ItemStatus)
			assert.Nil(t, item.ServedAt)
		}
	}

	require.NoError(t, cache.UpdateItemsStatus([]string{"item-1"}, models.ItemStatusInProgress, nil))
	items, err = cache.ItemsByOrder("ord-1")
	require.NoError(t, err)
	for _, item := range items {
		if item.ID == "item-1" {
			assert.Nil(t, item.ServedAt)
		}
	}
}

func TestMenuItemRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.BulkPutMenuItems([]models.MenuItem{
		{ID: "m-1", BusinessID: "biz-test", Name: "Latte", Price: 4.5, Category: "drinks"},
	}))
	// A menu pull after a price change overwrites the cached entry.
	require.NoError(t, cache.BulkPutMenuItems([]models.MenuItem{
		{ID: "m-1", BusinessID: "biz-test", Name: "Latte", Price: 5.0, Category: "drinks"},
	}))

	items, err := cache.MenuItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 5.0, items[0].Price)
}
