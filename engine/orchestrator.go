package engine

import (
	"context"
	"log"
	"time"

	"github.com/icaffe-pos/pos-device-api/config"
	"github.com/icaffe-pos/pos-device-api/models"
)

// Refresh pulls the bounded recent window from the remote store, merges it
// into the cache under the same timestamp guard the realtime path uses,
// then republishes the active view. It runs at startup to seed the cache
// and whenever realtime delivery may have gapped.
func (e *SyncEngine) Refresh(ctx context.Context) error {
	cutoff := e.clock.Now().Add(-config.RecentPullWindow)
	pulled, err := e.remote.PullOrders(ctx, e.businessID, cutoff)
	if err != nil {
		// Remote unreachable: skip the merge for this cycle, the cache
		// keeps serving whatever it has.
		log.Printf("refresh: pull failed, skipping cycle: %v", err)
		return err
	}

	e.mu.Lock()
	inPull := make(map[string]bool, len(pulled))
	for i := range pulled {
		incoming := pulled[i]
		inPull[incoming.ID] = true

		local, err := e.cache.GetOrder(incoming.ID)
		if err != nil {
			log.Printf("refresh: cache read failed for %s: %v", shortID(incoming.ID), err)
			continue
		}
		// Never regress a record whose local write is unconfirmed.
		if local != nil && local.PendingSync && !incoming.UpdatedAt.After(local.UpdatedAt) {
			continue
		}

		incoming.PendingSync = false
		if err := e.cache.PutOrder(&incoming); err != nil {
			log.Printf("refresh: merge failed for %s: %v", shortID(incoming.ID), err)
		}
	}

	// Confirmed cache rows inside the pull window that the remote no longer
	// returns were deleted upstream; drop them so stale orders cannot haunt
	// the board. Unconfirmed and local-only orders are left alone. A full
	// page may be truncated, so absence from it proves nothing and the
	// prune is skipped for that cycle.
	if len(pulled) < config.PullPageSize {
		locals, err := e.cache.OrdersByBusinessSince(e.businessID, cutoff)
		if err == nil {
			for _, local := range locals {
				if inPull[local.ID] || local.PendingSync || models.IsLocalOrderID(local.ID) {
					continue
				}
				if err := e.cache.DeleteOrder(local.ID); err != nil {
					log.Printf("refresh: prune failed for %s: %v", shortID(local.ID), err)
				}
			}
		}
	}
	e.mu.Unlock()

	e.publishView(ctx)
	return nil
}

// Poll runs Refresh on a fixed cadence until ctx is cancelled. It is the
// fallback that recovers from missed realtime events after reconnects and
// subscription gaps.
func (e *SyncEngine) Poll(ctx context.Context) {
	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Refresh(ctx); err != nil {
				continue
			}
			e.PushPending(ctx)
		}
	}
}
