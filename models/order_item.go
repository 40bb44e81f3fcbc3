package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Modifier is an applied option on an order item (e.g. oat milk, extra shot).
type Modifier struct {
	Name            string  `json:"name"`
	PriceAdjustment float64 `json:"price_adjustment"`
}

// ModifierList is stored as a JSON column in both sqlite and postgres.
type ModifierList []Modifier

// Value implements driver.Valuer for gorm serialization.
func (m ModifierList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for gorm deserialization.
func (m *ModifierList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported modifier column type %T", value)
}

// OrderItem is a line on an order. Name, price and category are snapshotted
// from the menu item at order time on purpose: menu content may change after
// the order was placed.
type OrderItem struct {
	ID         string       `gorm:"primaryKey" json:"id"`
	OrderID    string       `gorm:"not null;index" json:"order_id"`
	MenuItemID string       `gorm:"index" json:"menu_item_id"`
	Name       string       `json:"name"`
	Price      float64      `gorm:"not null" json:"price"`
	Category   string       `json:"category"`
	Quantity   int          `gorm:"not null;check:quantity > 0" json:"quantity"`
	ItemStatus ItemStatus   `gorm:"not null;default:'new';index" json:"item_status"`
	Mods       ModifierList `gorm:"type:text" json:"mods"`
	ServedAt   *time.Time   `json:"served_at"` // nullable, set when the item is handed over
	CreatedAt  time.Time    `gorm:"autoCreateTime:false" json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}

// ItemsPayload serializes items into the JSON array the server-side
// submission function expects. Only the fields the server stores are sent;
// denormalized category stays local.
func ItemsPayload(items []OrderItem) (string, error) {
	type wireItem struct {
		ID         string       `json:"id"`
		MenuItemID string       `json:"menu_item_id"`
		Name       string       `json:"name"`
		Price      float64      `json:"price"`
		Quantity   int          `json:"quantity"`
		ItemStatus ItemStatus   `json:"item_status"`
		Mods       ModifierList `json:"mods"`
	}

	wire := make([]wireItem, 0, len(items))
	for _, it := range items {
		wire = append(wire, wireItem{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   it.Quantity,
			ItemStatus: it.ItemStatus,
			Mods:       it.Mods,
		})
	}
	b, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to serialize order items: %w", err)
	}
	return string(b), nil
}
