package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/icaffe-pos/pos-device-api/models"
)

// Local is the device's embedded cache. It is the synchronous read/write
// surface for the UI; the sync engine is its only writer besides checkout.
type Local struct {
	db *gorm.DB
}

// NewLocal wraps an opened sqlite handle.
func NewLocal(db *gorm.DB) *Local {
	return &Local{db: db}
}

// GetOrder returns the cached order or nil when it is not cached.
func (l *Local) GetOrder(id string) (*models.Order, error) {
	var order models.Order
	if err := l.db.First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache read failed for order %s: %w", id, err)
	}
	return &order, nil
}

// PutOrder upserts a full order record.
func (l *Local) PutOrder(order *models.Order) error {
	if err := l.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(order).Error; err != nil {
		return fmt.Errorf("cache write failed for order %s: %w", order.ID, err)
	}
	return nil
}

// UpdateOrderFields applies a partial update by column name.
func (l *Local) UpdateOrderFields(id string, fields map[string]interface{}) error {
	if err := l.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("cache update failed for order %s: %w", id, err)
	}
	return nil
}

// DeleteOrder removes the order and its items. Items belong exclusively to
// their order, so they never outlive it.
func (l *Local) DeleteOrder(id string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Order{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("cache delete failed for order %s: %w", id, err)
		}
		if err := tx.Delete(&models.OrderItem{}, "order_id = ?", id).Error; err != nil {
			return fmt.Errorf("cache delete failed for items of order %s: %w", id, err)
		}
		return nil
	})
}

// OrdersByBusiness returns every cached order for the business.
func (l *Local) OrdersByBusiness(businessID string) ([]models.Order, error) {
	var orders []models.Order
	if err := l.db.Where("business_id = ?", businessID).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("cache query failed: %w", err)
	}
	return orders, nil
}

// OrdersByBusinessSince returns orders created after the cutoff.
func (l *Local) OrdersByBusinessSince(businessID string, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := l.db.Where("business_id = ? AND created_at > ?", businessID, cutoff).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("cache query failed: %w", err)
	}
	return orders, nil
}

// PendingOrders returns orders whose latest local write is unconfirmed.
func (l *Local) PendingOrders(businessID string) ([]models.Order, error) {
	var orders []models.Order
	err := l.db.Where("business_id = ? AND pending_sync = ?", businessID, true).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("cache query failed: %w", err)
	}
	return orders, nil
}

// CreateOrderWithItems writes the order first, then its items, in one
// transaction. This is the checkout path.
func (l *Local) CreateOrderWithItems(order *models.Order, items []models.OrderItem) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("cache write failed for order %s: %w", order.ID, err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("cache write failed for items of order %s: %w", order.ID, err)
		}
		return nil
	})
}

// RekeyOrder moves an order and its items to a new primary id and marks
// the order confirmed. This is the adoption step after the remote store
// assigns the authoritative id to an uploaded draft.
func (l *Local) RekeyOrder(oldID, newID string) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Order{}).Where("id = ?", oldID).
			Updates(map[string]interface{}{"id": newID, "pending_sync": false}).Error
		if err != nil {
			return fmt.Errorf("cache rekey failed for order %s: %w", oldID, err)
		}
		err = tx.Model(&models.OrderItem{}).Where("order_id = ?", oldID).
			Update("order_id", newID).Error
		if err != nil {
			return fmt.Errorf("cache rekey failed for items of order %s: %w", oldID, err)
		}
		return nil
	})
}

// ItemsByOrder returns the cached items of one order.
func (l *Local) ItemsByOrder(orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := l.db.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cache query failed for items of order %s: %w", orderID, err)
	}
	return items, nil
}

// ItemsByOrders returns items for a set of orders in one query.
func (l *Local) ItemsByOrders(orderIDs []string) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []models.OrderItem
	if err := l.db.Where("order_id IN ?", orderIDs).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cache query failed: %w", err)
	}
	return items, nil
}

// BulkPutItems upserts item records in chunks so a large pull does not
// build one oversized statement.
func (l *Local) BulkPutItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < len(items); i += 100 {
			end := i + 100
			if end > len(items) {
				end = len(items)
			}
			chunk := items[i:end]
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&chunk).Error; err != nil {
				return fmt.Errorf("cache bulk write failed: %w", err)
			}
		}
		return nil
	})
}

// UpdateItemsStatus moves a set of items to a status. ServedAt is written
// alongside so partial serving can be toggled on and off.
func (l *Local) UpdateItemsStatus(itemIDs []string, status models.ItemStatus, servedAt *time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := l.db.Model(&models.OrderItem{}).Where("id IN ?", itemIDs).
		Updates(map[string]interface{}{"item_status": status, "served_at": servedAt}).Error
	if err != nil {
		return fmt.Errorf("cache update failed for items: %w", err)
	}
	return nil
}

// MenuItems returns the cached menu.
func (l *Local) MenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := l.db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("cache query failed for menu items: %w", err)
	}
	return items, nil
}

// BulkPutMenuItems upserts the menu snapshot pulled from the remote store.
func (l *Local) BulkPutMenuItems(items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	if err := l.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&items).Error; err != nil {
		return fmt.Errorf("cache bulk write failed for menu items: %w", err)
	}
	return nil
}
