package models

import "fmt"

// OrderStatus is the storage-facing order status vocabulary.
// "pending" and "new" are used interchangeably upstream; both map to the
// same UI column.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusNew        OrderStatus = "new"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ItemStatus is the per-item status, independent of the order status so
// partially served orders can be represented.
type ItemStatus string

const (
	ItemStatusNew        ItemStatus = "new"
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusReady      ItemStatus = "ready"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

// UIColumn is a display column on the POS/KDS board. Columns are a strict
// grouping over storage statuses: "new" collects both new and pending,
// "in_prep" is in_progress, the rest map 1:1.
type UIColumn string

const (
	ColumnNew       UIColumn = "new"
	ColumnInPrep    UIColumn = "in_prep"
	ColumnReady     UIColumn = "ready"
	ColumnShipped   UIColumn = "shipped"
	ColumnDelivered UIColumn = "delivered"
)

// StorageStatusForColumn translates a UI column into the storage status that
// gets written. This is the only place the UI vocabulary is allowed to turn
// into a storage status; call sites must never build an OrderStatus from a
// UI string themselves.
func StorageStatusForColumn(col UIColumn) (OrderStatus, error) {
	switch col {
	case ColumnNew:
		return OrderStatusNew, nil
	case ColumnInPrep:
		return OrderStatusInProgress, nil
	case ColumnReady:
		return OrderStatusReady, nil
	case ColumnShipped:
		return OrderStatusShipped, nil
	case ColumnDelivered:
		return OrderStatusDelivered, nil
	}
	return "", fmt.Errorf("unknown UI column %q", col)
}

// ColumnForStatus reports the board column a storage status is displayed in.
// Terminal cancelled orders have no column.
func ColumnForStatus(status OrderStatus) (UIColumn, bool) {
	switch status {
	case OrderStatusNew, OrderStatusPending:
		return ColumnNew, true
	case OrderStatusInProgress:
		return ColumnInPrep, true
	case OrderStatusReady:
		return ColumnReady, true
	case OrderStatusShipped:
		return ColumnShipped, true
	case OrderStatusDelivered:
		return ColumnDelivered, true
	}
	return "", false
}

// ParseUIColumn validates a column name coming from a request.
func ParseUIColumn(s string) (UIColumn, error) {
	col := UIColumn(s)
	switch col {
	case ColumnNew, ColumnInPrep, ColumnReady, ColumnShipped, ColumnDelivered:
		return col, nil
	}
	return "", fmt.Errorf("unknown UI column %q", s)
}

// Terminal reports whether the order has left the active flow. Terminal
// orders drop off the board once they fall outside the retention window.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Active reports whether the order still needs kitchen attention.
func (s OrderStatus) Active() bool {
	switch s {
	case OrderStatusNew, OrderStatusPending, OrderStatusInProgress, OrderStatusReady, OrderStatusShipped:
		return true
	}
	return false
}

// ActiveEquivalent reports whether the status counts as "being worked on"
// for reconciliation against item statuses.
func (s OrderStatus) ActiveEquivalent() bool {
	switch s {
	case OrderStatusNew, OrderStatusPending, OrderStatusInProgress:
		return true
	}
	return false
}

// Acknowledged reports whether transitioning into this status counts as the
// cashier/KDS having seen the order.
func (s OrderStatus) Acknowledged() bool {
	switch s {
	case OrderStatusNew, OrderStatusPending, OrderStatusInProgress:
		return true
	}
	return false
}

// Active reports whether the item is still being prepared.
func (s ItemStatus) Active() bool {
	switch s {
	case ItemStatusNew, ItemStatusPending, ItemStatusInProgress:
		return true
	}
	return false
}

// Terminal reports whether the item is done from the kitchen's perspective.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemStatusReady, ItemStatusCompleted, ItemStatusCancelled:
		return true
	}
	return false
}
