package models

import "time"

// MenuItem is the cached copy of a menu entry. The engine only reads it to
// re-hydrate item names when a realtime payload arrives without them.
type MenuItem struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	BusinessID string    `gorm:"not null;index" json:"business_id"`
	Name       string    `gorm:"not null" json:"name"`
	Price      float64   `gorm:"not null" json:"price"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
