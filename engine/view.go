package engine

import (
	"context"
	"log"
	"sort"

	"github.com/icaffe-pos/pos-device-api/config"
	"github.com/icaffe-pos/pos-device-api/models"
)

// ActiveOrders reads the board view from the cache: every active order,
// plus finished orders that are still inside the display cutoff. Items are
// hydrated with menu-name fallback, and the result is FIFO-sorted by
// creation time so cards never jump when a record is touched.
func (e *SyncEngine) ActiveOrders(ctx context.Context) []models.Order {
	orders, err := e.cache.OrdersByBusiness(e.businessID)
	if err != nil {
		log.Printf("view: cache read failed: %v", err)
		return nil
	}

	cutoff := e.clock.Now().Add(-config.ActiveDisplayCutoff)
	visible := orders[:0]
	for _, o := range orders {
		if o.OrderStatus.Active() || o.CreatedAt.After(cutoff) || o.UpdatedAt.After(cutoff) {
			visible = append(visible, o)
		}
	}

	ids := make([]string, 0, len(visible))
	for _, o := range visible {
		ids = append(ids, o.ID)
	}
	items, err := e.cache.ItemsByOrders(ids)
	if err != nil {
		log.Printf("view: item read failed: %v", err)
		items = nil
	}

	menu := e.menuNames()
	itemsByOrder := make(map[string][]models.OrderItem, len(visible))
	for _, item := range items {
		if item.Name == "" {
			// The remote payload omitted the snapshot name; fall back to the
			// cached menu entry.
			if m, ok := menu[item.MenuItemID]; ok {
				item.Name = m.Name
				if item.Category == "" {
					item.Category = m.Category
				}
			}
		}
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	for i := range visible {
		visible[i].Items = itemsByOrder[visible[i].ID]
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.Before(visible[j].CreatedAt)
		}
		return visible[i].OrderNumber < visible[j].OrderNumber
	})
	return visible
}

// GroupByColumn arranges orders into board columns through the central
// status mapping. Cancelled orders have no column and are left out.
func GroupByColumn(orders []models.Order) map[models.UIColumn][]models.Order {
	grouped := map[models.UIColumn][]models.Order{
		models.ColumnNew:       {},
		models.ColumnInPrep:    {},
		models.ColumnReady:     {},
		models.ColumnShipped:   {},
		models.ColumnDelivered: {},
	}
	for _, o := range orders {
		col, ok := models.ColumnForStatus(o.OrderStatus)
		if !ok {
			continue
		}
		grouped[col] = append(grouped[col], o)
	}
	return grouped
}
