package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalOrderIDPrefix marks orders created on this device that have never
// been confirmed by the remote store. The id keeps the prefix until a
// successful upload rekeys the record to the server-assigned id.
const LocalOrderIDPrefix = "L"

// Order represents a customer order in the local cache. The same schema is
// used for the remote store; PendingSync exists only in the cache and is
// stripped from every remote payload.
type Order struct {
	ID            string      `gorm:"primaryKey" json:"id"`
	BusinessID    string      `gorm:"not null;index" json:"business_id"`
	OrderNumber   int         `gorm:"not null" json:"order_number"`
	OrderStatus   OrderStatus `gorm:"not null;default:'new';index" json:"order_status"`
	IsPaid        bool        `gorm:"not null;default:false" json:"is_paid"`
	PaymentMethod *string     `json:"payment_method"` // nullable, cash/card/etc
	TotalAmount   float64     `gorm:"not null" json:"total_amount"`
	CustomerName  *string     `json:"customer_name"`
	CustomerPhone *string     `json:"customer_phone"`

	// PaymentScreenshotKey is the S3 key of an uploaded payment confirmation;
	// PaymentScreenshotURL is the presigned URL computed at read time.
	PaymentScreenshotKey *string `json:"payment_screenshot_key,omitempty"`
	PaymentScreenshotURL *string `gorm:"-" json:"payment_screenshot_url,omitempty"`

	// Timestamps are owned by the sync engine's clock, not by gorm's
	// auto-tracking: a merge must preserve the incoming updated_at exactly
	// or the timestamp guard falls apart.
	CreatedAt   time.Time  `gorm:"index;autoCreateTime:false" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
	ReadyAt     *time.Time `json:"ready_at"`     // set once, first transition to ready
	CompletedAt *time.Time `json:"completed_at"` // set once, first transition to delivered
	SeenAt      *time.Time `json:"seen_at"`      // cashier/KDS acknowledgment

	// PendingSync marks a local write not yet confirmed by the remote store.
	// Never sent upstream.
	PendingSync bool `gorm:"not null;default:false" json:"pending_sync"`

	// Items are hydrated from the order_items table at read time.
	Items []OrderItem `gorm:"-" json:"items,omitempty"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// NewLocalOrderID generates an id for an order created at checkout before
// any network call.
func NewLocalOrderID() string {
	return LocalOrderIDPrefix + uuid.NewString()
}

// IsLocalOrderID reports whether the order was created on this device and
// is still unconfirmed by the remote store.
func IsLocalOrderID(id string) bool {
	return strings.HasPrefix(id, LocalOrderIDPrefix)
}
