package engine

import (
	"context"
	"log"

	"github.com/icaffe-pos/pos-device-api/models"
)

// Heal reconciles each active order's status against the aggregate of its
// items' statuses and corrects drift locally. Corrections are written
// pending so the next successful push carries them upstream. Returns the
// number of orders corrected.
//
// Orders whose items are not cached yet are skipped: guessing a correction
// for an order with unknown items would be worse than the drift. The
// startup sequence pulls items before healing to keep that set small.
func (e *SyncEngine) Heal(ctx context.Context) int {
	orders, err := e.cache.OrdersByBusiness(e.businessID)
	if err != nil {
		log.Printf("heal: cache read failed: %v", err)
		return 0
	}

	var active []models.Order
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if o.OrderStatus.Active() {
			active = append(active, o)
			ids = append(ids, o.ID)
		}
	}
	if len(active) == 0 {
		return 0
	}

	allItems, err := e.cache.ItemsByOrders(ids)
	if err != nil {
		log.Printf("heal: item read failed: %v", err)
		return 0
	}
	itemsByOrder := make(map[string][]models.OrderItem, len(active))
	for _, item := range allItems {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	healed := 0
	for _, order := range active {
		items := itemsByOrder[order.ID]
		if len(items) == 0 {
			continue
		}

		correct := order.OrderStatus

		hasActive := false
		allDone := true
		for _, item := range items {
			if item.ItemStatus.Active() {
				hasActive = true
			}
			if !item.ItemStatus.Terminal() {
				allDone = false
			}
		}

		// Something is still cooking but the order claims otherwise.
		if hasActive && !order.OrderStatus.ActiveEquivalent() {
			correct = models.OrderStatusInProgress
		}
		// Everything is done but the order is stuck in preparation.
		if allDone && order.OrderStatus == models.OrderStatusInProgress {
			correct = models.OrderStatusReady
		}

		if correct == order.OrderStatus {
			continue
		}

		e.mu.Lock()
		err := e.cache.UpdateOrderFields(order.ID, map[string]interface{}{
			"order_status": correct,
			"pending_sync": true,
			"updated_at":   e.clock.Now(),
		})
		e.mu.Unlock()
		if err != nil {
			log.Printf("heal: correction failed for %s: %v", shortID(order.ID), err)
			continue
		}
		healed++
	}

	if healed > 0 {
		log.Printf("heal: corrected %d orders", healed)
		e.publishView(ctx)
	}
	return healed
}
