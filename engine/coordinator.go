package engine

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/icaffe-pos/pos-device-api/models"
	"github.com/icaffe-pos/pos-device-api/remote"
)

// UpdateStatus applies a board move optimistically and pushes it to the
// remote store. The returned boolean is the only signal the UI gets;
// failure causes are logged and kept in LastError.
//
// While the protection window from a previous successful write is active
// the call is rejected outright, so one device cannot stack writes inside
// its own cool-down.
func (e *SyncEngine) UpdateStatus(ctx context.Context, orderID string, target models.UIColumn) bool {
	if e.windowActive() {
		log.Printf("updateStatus rejected for %s: protection window active", shortID(orderID))
		return false
	}

	status, err := models.StorageStatusForColumn(target)
	if err != nil {
		e.setError(err.Error())
		return false
	}

	if orderID == "" || e.businessID == "" {
		// Missing references make the operation a silent no-op.
		return false
	}

	current, err := e.cache.GetOrder(orderID)
	if err != nil {
		e.setError(err.Error())
		return false
	}
	if current == nil {
		log.Printf("updateStatus: order %s not cached, ignoring", shortID(orderID))
		return false
	}

	now := e.clock.Now()
	fields := map[string]interface{}{
		"order_status": status,
		"updated_at":   now,
		"pending_sync": true,
	}
	// ready_at and completed_at are written exactly once, on the first
	// transition into their status. An undo clears them explicitly through
	// UpdateOrderFields, never here.
	if status == models.OrderStatusReady && current.ReadyAt == nil {
		fields["ready_at"] = now
	}
	if status == models.OrderStatusDelivered && current.CompletedAt == nil {
		fields["completed_at"] = now
	}
	if status.Acknowledged() {
		fields["seen_at"] = now
	}

	e.mu.Lock()
	err = e.cache.UpdateOrderFields(orderID, fields)
	e.mu.Unlock()
	if err != nil {
		// The device's own storage is broken; this class is not absorbed.
		e.setError(err.Error())
		return false
	}
	e.publishView(ctx)

	// Orders that never reached the remote store have nothing to transition
	// yet; the upload pass pushes them wholesale later.
	if models.IsLocalOrderID(orderID) {
		return true
	}

	opts := remote.TransitionOptions{ItemStatus: cascadeItemStatus(status)}
	result, err := e.remote.TransitionOrderStatus(ctx, orderID, status, e.businessID, opts)
	if err != nil {
		// Remote unreachable: the optimistic write stands locally and stays
		// pending until the next successful push or pull.
		e.setError(fmt.Sprintf("status push failed for %s: %v", shortID(orderID), err))
		log.Printf("updateStatus: remote unreachable for %s: %v", shortID(orderID), err)
		return false
	}
	if !result.Success || result.RowsAffected == 0 {
		// Another writer won the row. Revert to the pre-call record and let
		// the next pull bring the winning value in.
		log.Printf("updateStatus: conflict on %s (rows_affected=%d), reverting", shortID(orderID), result.RowsAffected)
		restored := *current
		restored.PendingSync = false
		e.mu.Lock()
		if err := e.cache.PutOrder(&restored); err != nil {
			log.Printf("updateStatus: revert write failed for %s: %v", shortID(orderID), err)
		}
		e.mu.Unlock()
		e.publishView(ctx)
		return false
	}

	e.mu.Lock()
	err = e.cache.UpdateOrderFields(orderID, map[string]interface{}{"pending_sync": false})
	e.mu.Unlock()
	if err != nil {
		log.Printf("updateStatus: failed to clear pending flag for %s: %v", shortID(orderID), err)
	}
	e.openWindow()
	e.publishView(ctx)
	return true
}

// cascadeItemStatus keeps the KDS in step with board moves: resetting an
// order resets its items, finishing an order marks its items ready.
func cascadeItemStatus(status models.OrderStatus) *models.ItemStatus {
	switch status {
	case models.OrderStatusNew:
		s := models.ItemStatusNew
		return &s
	case models.OrderStatusReady, models.OrderStatusShipped, models.OrderStatusDelivered:
		s := models.ItemStatusReady
		return &s
	}
	return nil
}

// MarkOrderSeen acknowledges an order without changing its status. The
// remote transition function still requires a status argument, so the
// current one is passed back alongside the seen timestamp.
func (e *SyncEngine) MarkOrderSeen(ctx context.Context, orderID string) bool {
	if orderID == "" {
		return false
	}
	current, err := e.cache.GetOrder(orderID)
	if err != nil {
		e.setError(err.Error())
		return false
	}
	if current == nil {
		return false
	}

	now := e.clock.Now()
	e.mu.Lock()
	err = e.cache.UpdateOrderFields(orderID, map[string]interface{}{
		"seen_at":      now,
		"updated_at":   now,
		"pending_sync": true,
	})
	e.mu.Unlock()
	if err != nil {
		e.setError(err.Error())
		return false
	}
	e.publishView(ctx)

	if !models.IsLocalOrderID(orderID) {
		status := current.OrderStatus
		if status == "" {
			status = models.OrderStatusPending
		}
		result, err := e.remote.TransitionOrderStatus(ctx, orderID, status, e.businessID,
			remote.TransitionOptions{SeenAt: &now})
		if err != nil || !result.Success {
			log.Printf("markOrderSeen: push failed for %s: %v", shortID(orderID), err)
			e.mu.Lock()
			if cerr := e.cache.UpdateOrderFields(orderID, map[string]interface{}{"pending_sync": false}); cerr != nil {
				log.Printf("markOrderSeen: failed to clear pending flag: %v", cerr)
			}
			e.mu.Unlock()
			return false
		}
	}

	e.mu.Lock()
	err = e.cache.UpdateOrderFields(orderID, map[string]interface{}{"pending_sync": false})
	e.mu.Unlock()
	if err != nil {
		log.Printf("markOrderSeen: failed to clear pending flag: %v", err)
	}
	e.publishView(ctx)
	return true
}

// UpdateOrderFields applies an arbitrary non-status field change (customer
// details, paid flag, screenshot key) with the same optimistic shape.
func (e *SyncEngine) UpdateOrderFields(ctx context.Context, orderID string, fields map[string]interface{}) bool {
	if orderID == "" || len(fields) == 0 {
		return false
	}

	local := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		local[k] = v
	}
	local["updated_at"] = e.clock.Now()
	local["pending_sync"] = true

	e.mu.Lock()
	err := e.cache.UpdateOrderFields(orderID, local)
	e.mu.Unlock()
	if err != nil {
		e.setError(err.Error())
		return false
	}
	e.publishView(ctx)

	if !models.IsLocalOrderID(orderID) {
		// The remote copy gets the caller's fields only, never local flags.
		if err := e.remote.UpdateOrderFields(ctx, orderID, e.businessID, fields); err != nil {
			e.setError(fmt.Sprintf("field push failed for %s: %v", shortID(orderID), err))
			return false
		}
	}

	e.mu.Lock()
	if err := e.cache.UpdateOrderFields(orderID, map[string]interface{}{"pending_sync": false}); err != nil {
		log.Printf("updateOrderFields: failed to clear pending flag: %v", err)
	}
	e.mu.Unlock()
	e.publishView(ctx)
	return true
}

// SetItemsStatus toggles a set of items on an order, supporting partial
// serving. Completed items get a served_at stamp; any other target clears it.
func (e *SyncEngine) SetItemsStatus(ctx context.Context, orderID string, itemIDs []string, target models.ItemStatus) bool {
	if orderID == "" || len(itemIDs) == 0 {
		return false
	}

	var servedAt *time.Time
	if target == models.ItemStatusCompleted {
		now := e.clock.Now()
		servedAt = &now
	}

	e.mu.Lock()
	err := e.cache.UpdateItemsStatus(itemIDs, target, servedAt)
	e.mu.Unlock()
	if err != nil {
		e.setError(err.Error())
		return false
	}
	e.publishView(ctx)

	if !models.IsLocalOrderID(orderID) {
		if err := e.remote.UpdateItemStatus(ctx, itemIDs, target, servedAt); err != nil {
			log.Printf("setItemsStatus: push failed for %s: %v", shortID(orderID), err)
			return false
		}
	}
	return true
}

// CheckoutLine is one cart line at submission time.
type CheckoutLine struct {
	MenuItemID string
	Name       string
	Price      float64
	Category   string
	Quantity   int
	Mods       models.ModifierList
}

// CheckoutDraft is a checkout submission from the POS.
type CheckoutDraft struct {
	PaymentMethod string
	IsPaid        bool
	CustomerName  string
	CustomerPhone string
	Lines         []CheckoutLine
}

// SubmitOrder creates the order locally before any network call, then
// pushes it to the remote store. A push failure leaves the local copy
// pending for PushPending to retry; the checkout itself still succeeds.
func (e *SyncEngine) SubmitOrder(ctx context.Context, draft CheckoutDraft) (models.Order, error) {
	if len(draft.Lines) == 0 {
		return models.Order{}, fmt.Errorf("cannot submit an empty order")
	}

	now := e.clock.Now()
	order := models.Order{
		ID:          models.NewLocalOrderID(),
		BusinessID:  e.businessID,
		OrderNumber: 100 + rand.Intn(900),
		OrderStatus: models.OrderStatusInProgress,
		IsPaid:      draft.IsPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
		PendingSync: true,
	}
	if draft.PaymentMethod != "" {
		order.PaymentMethod = &draft.PaymentMethod
	}
	if draft.CustomerName != "" {
		order.CustomerName = &draft.CustomerName
	}
	if draft.CustomerPhone != "" {
		order.CustomerPhone = &draft.CustomerPhone
	}

	items := make([]models.OrderItem, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		lineTotal := line.Price
		for _, mod := range line.Mods {
			lineTotal += mod.PriceAdjustment
		}
		order.TotalAmount += lineTotal * float64(qty)

		items = append(items, models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      line.Price,
			Category:   line.Category,
			Quantity:   qty,
			ItemStatus: models.ItemStatusInProgress,
			Mods:       line.Mods,
			CreatedAt:  now,
		})
	}

	e.mu.Lock()
	err := e.cache.CreateOrderWithItems(&order, items)
	e.mu.Unlock()
	if err != nil {
		return models.Order{}, err
	}
	e.publishView(ctx)

	serverID, err := e.remote.SubmitOrder(ctx, order, items)
	if err != nil {
		log.Printf("submitOrder: push failed for %s, keeping pending: %v", shortID(order.ID), err)
		order.Items = items
		return order, nil
	}

	// Adopt the authoritative row: the local draft id is replaced so later
	// status edits transition the server's record instead of being skipped
	// as never-uploaded.
	e.mu.Lock()
	err = e.cache.RekeyOrder(order.ID, serverID)
	e.mu.Unlock()
	if err != nil {
		log.Printf("submitOrder: adoption failed for %s: %v", shortID(order.ID), err)
		order.Items = items
		return order, nil
	}
	log.Printf("submitOrder: draft %s confirmed as %s", shortID(order.ID), shortID(serverID))

	order.ID = serverID
	order.PendingSync = false
	for i := range items {
		items[i].OrderID = serverID
	}
	order.Items = items
	e.publishView(ctx)
	return order, nil
}

// PushPending retries every unconfirmed local write: never-submitted drafts
// go through the submission function and adopt the server-assigned id,
// confirmed orders re-push their current status. Returns how many records
// were synced.
func (e *SyncEngine) PushPending(ctx context.Context) int {
	pending, err := e.cache.PendingOrders(e.businessID)
	if err != nil {
		log.Printf("pushPending: cache read failed: %v", err)
		return 0
	}

	pushed := 0
	for _, order := range pending {
		if models.IsLocalOrderID(order.ID) {
			items, err := e.cache.ItemsByOrder(order.ID)
			if err != nil {
				log.Printf("pushPending: item read failed for %s: %v", shortID(order.ID), err)
				continue
			}
			serverID, err := e.remote.SubmitOrder(ctx, order, items)
			if err != nil {
				log.Printf("pushPending: submit failed for %s: %v", shortID(order.ID), err)
				continue
			}
			e.mu.Lock()
			err = e.cache.RekeyOrder(order.ID, serverID)
			e.mu.Unlock()
			if err != nil {
				log.Printf("pushPending: adoption failed for %s: %v", shortID(order.ID), err)
				continue
			}
			// The submission function writes the order as freshly placed; a
			// status edit made while the draft was offline still has to be
			// transitioned against the adopted id.
			if order.OrderStatus != models.OrderStatusInProgress {
				opts := remote.TransitionOptions{SeenAt: order.SeenAt, ItemStatus: cascadeItemStatus(order.OrderStatus)}
				if result, err := e.remote.TransitionOrderStatus(ctx, serverID, order.OrderStatus, e.businessID, opts); err != nil || !result.Success {
					log.Printf("pushPending: status replay failed for %s: %v", shortID(serverID), err)
				}
			}
			pushed++
			continue
		}

		result, err := e.remote.TransitionOrderStatus(ctx, order.ID, order.OrderStatus, e.businessID,
			remote.TransitionOptions{SeenAt: order.SeenAt})
		if err != nil || !result.Success {
			log.Printf("pushPending: transition failed for %s: %v", shortID(order.ID), err)
			continue
		}

		e.mu.Lock()
		if err := e.cache.UpdateOrderFields(order.ID, map[string]interface{}{"pending_sync": false}); err != nil {
			log.Printf("pushPending: failed to clear pending flag: %v", err)
		}
		e.mu.Unlock()
		pushed++
	}

	if pushed > 0 {
		log.Printf("pushPending: synced %d pending orders", pushed)
		e.publishView(ctx)
	}
	return pushed
}

// shortID trims uuids for log lines.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
