package engine

import (
	"context"
	"log"

	"github.com/icaffe-pos/pos-device-api/remote"
)

// handleEvent merges one inbound change notification into the cache.
// Processing is idempotent: replaying the same update lands on the same
// cache state.
func (e *SyncEngine) handleEvent(ctx context.Context, event remote.ChangeEvent) {
	e.mu.Lock()

	// A device's own successful write just echoed back. Dropping the event
	// entirely is what keeps the card from jumping; the next pull converges
	// anything genuinely newer.
	if e.window.Active(e.clock.Now()) {
		e.mu.Unlock()
		log.Printf("realtime: protection window active, dropping %s event", event.Type)
		return
	}

	switch event.Type {
	case remote.EventDelete:
		if event.OldID == "" {
			e.mu.Unlock()
			return
		}
		if err := e.cache.DeleteOrder(event.OldID); err != nil {
			log.Printf("realtime: delete failed for %s: %v", shortID(event.OldID), err)
		}
		e.mu.Unlock()
		e.publishView(ctx)

	case remote.EventInsert, remote.EventUpdate:
		if event.Order == nil {
			e.mu.Unlock()
			return
		}
		incoming := *event.Order

		local, err := e.cache.GetOrder(incoming.ID)
		if err != nil {
			e.mu.Unlock()
			log.Printf("realtime: cache read failed for %s: %v", shortID(incoming.ID), err)
			return
		}
		if local != nil && local.PendingSync {
			// An in-flight local edit owns this record. Only a strictly
			// newer remote copy may replace it; a stale echo is discarded.
			if !incoming.UpdatedAt.After(local.UpdatedAt) {
				e.mu.Unlock()
				log.Printf("realtime: stale echo for %s discarded (local write in progress)", shortID(incoming.ID))
				return
			}
		}

		incoming.PendingSync = false
		if err := e.cache.PutOrder(&incoming); err != nil {
			e.mu.Unlock()
			log.Printf("realtime: merge failed for %s: %v", shortID(incoming.ID), err)
			return
		}
		e.mu.Unlock()

		e.hydrateItems(ctx, incoming.ID)
		e.publishView(ctx)

	default:
		e.mu.Unlock()
	}
}

// hydrateItems makes sure the order's items exist in the cache. A realtime
// order event can outrun its items, so when the cache has none the remote
// copy is fetched and stored.
func (e *SyncEngine) hydrateItems(ctx context.Context, orderID string) {
	items, err := e.cache.ItemsByOrder(orderID)
	if err != nil {
		log.Printf("realtime: item read failed for %s: %v", shortID(orderID), err)
		return
	}
	if len(items) > 0 {
		return
	}

	remoteItems, err := e.remote.PullOrderItems(ctx, orderID)
	if err != nil {
		log.Printf("realtime: item fetch failed for %s: %v", shortID(orderID), err)
		return
	}
	if len(remoteItems) == 0 {
		return
	}
	if err := e.cache.BulkPutItems(remoteItems); err != nil {
		log.Printf("realtime: item store failed for %s: %v", shortID(orderID), err)
	}
}
