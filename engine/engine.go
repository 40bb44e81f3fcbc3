package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/icaffe-pos/pos-device-api/config"
	"github.com/icaffe-pos/pos-device-api/models"
	"github.com/icaffe-pos/pos-device-api/remote"
	"github.com/icaffe-pos/pos-device-api/store"
)

// RemoteStore is the slice of the remote client the engine depends on.
// Hand-written fakes implement it in tests.
type RemoteStore interface {
	PullOrders(ctx context.Context, businessID string, updatedSince time.Time) ([]models.Order, error)
	PullOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error)
	PullMenuItems(ctx context.Context, businessID string) ([]models.MenuItem, error)
	TransitionOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, businessID string, opts remote.TransitionOptions) (remote.TransitionResult, error)
	SubmitOrder(ctx context.Context, order models.Order, items []models.OrderItem) (string, error)
	UpdateOrderFields(ctx context.Context, orderID string, businessID string, fields map[string]interface{}) error
	UpdateItemStatus(ctx context.Context, itemIDs []string, status models.ItemStatus, servedAt *time.Time) error
	Subscribe(ctx context.Context, businessID string) (<-chan remote.ChangeEvent, error)
}

// SyncEngine keeps the device's local cache consistent with the remote
// store. It is constructed once per device session and passed to callers
// explicitly; there is no ambient instance.
//
// Concurrency model: realtime events are drained by the single Run
// goroutine, optimistic writes come from request handlers. The mutex makes
// the protection-window check and the pending_sync timestamp guard atomic
// relative to each other; remote calls happen outside the lock.
type SyncEngine struct {
	cache      *store.Local
	remote     RemoteStore
	businessID string
	clock      Clock

	mu       sync.Mutex
	window   ProtectionWindow
	menuMap  map[string]models.MenuItem
	lastErr  string
	onOrders func([]models.Order)
}

// New builds an engine for one device session.
func New(cache *store.Local, remoteStore RemoteStore, businessID string, clock Clock) *SyncEngine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SyncEngine{
		cache:      cache,
		remote:     remoteStore,
		businessID: businessID,
		clock:      clock,
	}
}

// OnOrdersChanged registers the UI callback invoked with the fresh active
// view after every merge, heal or optimistic write.
func (e *SyncEngine) OnOrdersChanged(fn func([]models.Order)) {
	e.mu.Lock()
	e.onOrders = fn
	e.mu.Unlock()
}

// LastError returns the most recent internally absorbed failure, for
// optional display. The engine never propagates network or conflict errors
// to callers beyond boolean results.
func (e *SyncEngine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *SyncEngine) setError(msg string) {
	e.mu.Lock()
	e.lastErr = msg
	e.mu.Unlock()
}

// Run subscribes to the realtime feed and processes events in arrival
// order until ctx is cancelled. Missed events while disconnected are
// recovered by the periodic Refresh, so Run does not reconnect on its own.
func (e *SyncEngine) Run(ctx context.Context) error {
	events, err := e.remote.Subscribe(ctx, e.businessID)
	if err != nil {
		return err
	}
	log.Printf("Realtime feed connected for business %s", e.businessID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				log.Printf("Realtime feed closed, relying on poll fallback")
				return nil
			}
			e.handleEvent(ctx, event)
		}
	}
}

// windowActive reports the protection window state under the lock.
func (e *SyncEngine) windowActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.window.Active(e.clock.Now())
}

// openWindow starts the post-write protection interval.
func (e *SyncEngine) openWindow() {
	e.mu.Lock()
	e.window = OpenWindow(e.clock.Now(), config.ProtectionWindow)
	e.mu.Unlock()
}

// publishView re-reads the active view from the cache and hands it to the
// UI callback.
func (e *SyncEngine) publishView(ctx context.Context) {
	e.mu.Lock()
	fn := e.onOrders
	e.mu.Unlock()
	if fn == nil {
		return
	}
	fn(e.ActiveOrders(ctx))
}

// menuNames returns the cached menu map, loading it from the local cache
// on first use. The map only feeds name re-hydration, so staleness is
// harmless; SeedMenu resets it after a menu pull.
func (e *SyncEngine) menuNames() map[string]models.MenuItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.menuMap == nil {
		items, err := e.cache.MenuItems()
		if err != nil {
			log.Printf("Menu cache read failed: %v", err)
			return nil
		}
		e.menuMap = make(map[string]models.MenuItem, len(items))
		for _, it := range items {
			e.menuMap[it.ID] = it
		}
	}
	return e.menuMap
}

// SeedMenu pulls the business menu into the cache for name hydration.
func (e *SyncEngine) SeedMenu(ctx context.Context) error {
	items, err := e.remote.PullMenuItems(ctx, e.businessID)
	if err != nil {
		return err
	}
	if err := e.cache.BulkPutMenuItems(items); err != nil {
		return err
	}
	e.mu.Lock()
	e.menuMap = nil
	e.mu.Unlock()
	return nil
}
