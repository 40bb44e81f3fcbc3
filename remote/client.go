package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/icaffe-pos/pos-device-api/config"
	"github.com/icaffe-pos/pos-device-api/models"
)

// Client talks to the authoritative store shared by all devices of a
// business. Status transitions go through a server-side SQL function that
// performs its own row-level check; the client only sees success and the
// affected row count.
type Client struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewClient wraps the remote postgres handle and the redis feed client.
func NewClient(db *gorm.DB, rdb *redis.Client) *Client {
	return &Client{db: db, rdb: rdb}
}

// TransitionResult is the outcome of the atomic status-transition function.
// Success=false or RowsAffected=0 means another writer won the row.
type TransitionResult struct {
	Success      bool `json:"success"`
	RowsAffected int  `json:"rows_affected"`
}

// TransitionOptions carries the optional arguments of the transition
// function: an acknowledgment timestamp and an item status to cascade.
type TransitionOptions struct {
	SeenAt     *time.Time
	ItemStatus *models.ItemStatus
}

// remoteOrder is the wire shape of an order row. It deliberately omits the
// cache-only pending_sync flag, which must never reach the remote store.
type remoteOrder struct {
	ID                   string             `gorm:"primaryKey"`
	BusinessID           string             `gorm:"column:business_id"`
	OrderNumber          int                `gorm:"column:order_number"`
	OrderStatus          models.OrderStatus `gorm:"column:order_status"`
	IsPaid               bool               `gorm:"column:is_paid"`
	PaymentMethod        *string            `gorm:"column:payment_method"`
	TotalAmount          float64            `gorm:"column:total_amount"`
	CustomerName         *string            `gorm:"column:customer_name"`
	CustomerPhone        *string            `gorm:"column:customer_phone"`
	PaymentScreenshotKey *string            `gorm:"column:payment_screenshot_key"`
	CreatedAt            time.Time          `gorm:"column:created_at"`
	UpdatedAt            time.Time          `gorm:"column:updated_at"`
	ReadyAt              *time.Time         `gorm:"column:ready_at"`
	CompletedAt          *time.Time         `gorm:"column:completed_at"`
	SeenAt               *time.Time         `gorm:"column:seen_at"`
}

func (remoteOrder) TableName() string {
	return "orders"
}

func (r remoteOrder) toModel() models.Order {
	return models.Order{
		ID:                   r.ID,
		BusinessID:           r.BusinessID,
		OrderNumber:          r.OrderNumber,
		OrderStatus:          r.OrderStatus,
		IsPaid:               r.IsPaid,
		PaymentMethod:        r.PaymentMethod,
		TotalAmount:          r.TotalAmount,
		CustomerName:         r.CustomerName,
		CustomerPhone:        r.CustomerPhone,
		PaymentScreenshotKey: r.PaymentScreenshotKey,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		ReadyAt:              r.ReadyAt,
		CompletedAt:          r.CompletedAt,
		SeenAt:               r.SeenAt,
	}
}

// PullOrders fetches the bounded recent window for a business: everything
// non-terminal plus anything updated since the cutoff, newest first.
func (c *Client) PullOrders(ctx context.Context, businessID string, updatedSince time.Time) ([]models.Order, error) {
	var rows []remoteOrder
	err := c.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Where("order_status NOT IN ? OR updated_at >= ?",
			[]models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusCancelled}, updatedSince).
		Order("created_at DESC").
		Limit(config.PullPageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("remote pull failed: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toModel())
	}
	return orders, nil
}

// PullOrderItems fetches the items of one order.
func (c *Client) PullOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := c.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("remote item pull failed for order %s: %w", orderID, err)
	}
	return items, nil
}

// PullMenuItems fetches the business menu for the local name-hydration cache.
func (c *Client) PullMenuItems(ctx context.Context, businessID string) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := c.db.WithContext(ctx).Where("business_id = ?", businessID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("remote menu pull failed: %w", err)
	}
	return items, nil
}

// TransitionOrderStatus invokes the server-side atomic transition function.
// The function requires a status argument even for acknowledgment-only
// updates, which is why callers pass the current status with a SeenAt option.
func (c *Client) TransitionOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, businessID string, opts TransitionOptions) (TransitionResult, error) {
	var result TransitionResult
	err := c.db.WithContext(ctx).
		Raw("SELECT success, rows_affected FROM update_order_status(?, ?, ?, ?, ?)",
			orderID, status, businessID, opts.SeenAt, opts.ItemStatus).
		Scan(&result).Error
	if err != nil {
		return TransitionResult{}, fmt.Errorf("remote transition failed for order %s: %w", orderID, err)
	}

	if result.Success {
		c.publishOrder(ctx, businessID, orderID, EventUpdate)
	}
	return result, nil
}

// SubmitOrder pushes a locally created order through the server-side
// submission function, which assigns the authoritative row and returns its
// id. Callers must replace their local copy with that id; the submission
// function carries no status argument, so later status edits only reach
// the server through TransitionOrderStatus against the returned id.
func (c *Client) SubmitOrder(ctx context.Context, order models.Order, items []models.OrderItem) (string, error) {
	type submitResult struct {
		OrderID     string `json:"order_id"`
		OrderNumber int    `json:"order_number"`
	}

	payload, err := models.ItemsPayload(items)
	if err != nil {
		return "", err
	}

	var res submitResult
	err = c.db.WithContext(ctx).
		Raw("SELECT order_id, order_number FROM submit_order(?, ?, ?, ?, ?, ?)",
			order.BusinessID, order.ID, payload, order.PaymentMethod, order.IsPaid, order.TotalAmount).
		Scan(&res).Error
	if err != nil {
		return "", fmt.Errorf("remote submit failed for order %s: %w", order.ID, err)
	}
	if res.OrderID == "" {
		return "", errors.New("remote submit returned no order id")
	}

	c.publishOrder(ctx, order.BusinessID, res.OrderID, EventInsert)
	return res.OrderID, nil
}

// UpdateOrderFields applies a direct non-status field update (customer
// details, paid flag, screenshot key). Status changes must go through
// TransitionOrderStatus.
func (c *Client) UpdateOrderFields(ctx context.Context, orderID string, businessID string, fields map[string]interface{}) error {
	err := c.db.WithContext(ctx).Model(&remoteOrder{}).Where("id = ?", orderID).Updates(fields).Error
	if err != nil {
		return fmt.Errorf("remote field update failed for order %s: %w", orderID, err)
	}
	c.publishOrder(ctx, businessID, orderID, EventUpdate)
	return nil
}

// UpdateItemStatus moves a set of items to a status remotely.
func (c *Client) UpdateItemStatus(ctx context.Context, itemIDs []string, status models.ItemStatus, servedAt *time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).Model(&models.OrderItem{}).Where("id IN ?", itemIDs).
		Updates(map[string]interface{}{"item_status": status, "served_at": servedAt}).Error
	if err != nil {
		return fmt.Errorf("remote item update failed: %w", err)
	}
	return nil
}

// publishOrder re-reads the row and emits it on the business feed so other
// devices pick the change up without waiting for their poll.
func (c *Client) publishOrder(ctx context.Context, businessID, orderID string, eventType EventType) {
	var row remoteOrder
	if err := c.db.WithContext(ctx).First(&row, "id = ?", orderID).Error; err != nil {
		return
	}
	order := row.toModel()
	c.publish(ctx, businessID, ChangeEvent{Type: eventType, Order: &order})
}
