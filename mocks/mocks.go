// Package mocks provides in-memory fakes for the engine's remote
// dependencies, used by tests across packages.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/icaffe-pos/pos-device-api/models"
	"github.com/icaffe-pos/pos-device-api/remote"
)

// FakeClock is a manually advanced clock for driving the protection
// window deterministically.
type FakeClock struct {
	mu      sync.Mutex
	Current time.Time
}

// NewFakeClock starts a clock at a fixed instant.
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{Current: start}
}

// Now returns the clock's current instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Current
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.Current = c.Current.Add(d)
	c.mu.Unlock()
}

// TransitionCall records one TransitionOrderStatus invocation.
type TransitionCall struct {
	OrderID    string
	Status     models.OrderStatus
	BusinessID string
	Opts       remote.TransitionOptions
}

// FieldUpdateCall records one UpdateOrderFields invocation.
type FieldUpdateCall struct {
	OrderID string
	Fields  map[string]interface{}
}

// ItemStatusCall records one UpdateItemStatus invocation.
type ItemStatusCall struct {
	ItemIDs  []string
	Status   models.ItemStatus
	ServedAt *time.Time
}

// FakeRemote is a stateful in-memory stand-in for the remote store. Orders
// and items put into it are served back by the pull methods; error fields
// make individual operations fail on demand.
type FakeRemote struct {
	mu sync.Mutex

	Orders map[string]models.Order
	Items  map[string][]models.OrderItem
	Menu   []models.MenuItem

	// Result is returned by TransitionOrderStatus when TransitionErr is nil.
	Result        remote.TransitionResult
	TransitionErr error
	SubmitErr     error
	PullErr       error
	ItemsErr      error
	FieldsErr     error
	ItemStatusErr error
	SubscribeErr  error

	Transitions  []TransitionCall
	Submitted    []models.Order
	FieldUpdates []FieldUpdateCall
	ItemUpdates  []ItemStatusCall

	// Assigned maps each submitted draft id to the server id handed back.
	Assigned map[string]string

	// Events feeds the channel Subscribe hands out.
	Events chan remote.ChangeEvent
}

// NewFakeRemote returns an empty fake whose transitions succeed.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		Orders:   make(map[string]models.Order),
		Items:    make(map[string][]models.OrderItem),
		Assigned: make(map[string]string),
		Result:   remote.TransitionResult{Success: true, RowsAffected: 1},
		Events:   make(chan remote.ChangeEvent, 64),
	}
}

// PullOrders returns every stored order for the business that is still
// active or was updated after the cutoff, mirroring the real pull query.
func (f *FakeRemote) PullOrders(ctx context.Context, businessID string, updatedSince time.Time) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	var out []models.Order
	for _, o := range f.Orders {
		if o.BusinessID != businessID {
			continue
		}
		if !o.OrderStatus.Terminal() || !o.UpdatedAt.Before(updatedSince) {
			out = append(out, o)
		}
	}
	return out, nil
}

// PullOrderItems returns the stored items of one order.
func (f *FakeRemote) PullOrderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ItemsErr != nil {
		return nil, f.ItemsErr
	}
	return append([]models.OrderItem(nil), f.Items[orderID]...), nil
}

// PullMenuItems returns the stored menu.
func (f *FakeRemote) PullMenuItems(ctx context.Context, businessID string) ([]models.MenuItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PullErr != nil {
		return nil, f.PullErr
	}
	return append([]models.MenuItem(nil), f.Menu...), nil
}

// TransitionOrderStatus records the call and returns the configured result.
func (f *FakeRemote) TransitionOrderStatus(ctx context.Context, orderID string, status models.OrderStatus, businessID string, opts remote.TransitionOptions) (remote.TransitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Transitions = append(f.Transitions, TransitionCall{
		OrderID: orderID, Status: status, BusinessID: businessID, Opts: opts,
	})
	if f.TransitionErr != nil {
		return remote.TransitionResult{}, f.TransitionErr
	}
	if f.Result.Success {
		if o, ok := f.Orders[orderID]; ok {
			o.OrderStatus = status
			f.Orders[orderID] = o
		}
	}
	return f.Result, nil
}

// SubmitOrder records the submission and stores the order under a
// server-assigned id. Mirroring the real submission function, the stored
// row starts freshly placed: the caller's status is not part of the wire
// payload and only reaches the server through a later transition.
func (f *FakeRemote) SubmitOrder(ctx context.Context, order models.Order, items []models.OrderItem) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Submitted = append(f.Submitted, order)
	if f.SubmitErr != nil {
		return "", f.SubmitErr
	}

	serverID := fmt.Sprintf("srv-%d", len(f.Submitted))
	f.Assigned[order.ID] = serverID

	stored := order
	stored.ID = serverID
	stored.OrderStatus = models.OrderStatusInProgress
	stored.PendingSync = false
	f.Orders[serverID] = stored

	rekeyed := append([]models.OrderItem(nil), items...)
	for i := range rekeyed {
		rekeyed[i].OrderID = serverID
	}
	f.Items[serverID] = rekeyed
	return serverID, nil
}

// UpdateOrderFields records the call and applies nothing; field semantics
// live server side.
func (f *FakeRemote) UpdateOrderFields(ctx context.Context, orderID string, businessID string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FieldUpdates = append(f.FieldUpdates, FieldUpdateCall{OrderID: orderID, Fields: fields})
	return f.FieldsErr
}

// UpdateItemStatus records the call.
func (f *FakeRemote) UpdateItemStatus(ctx context.Context, itemIDs []string, status models.ItemStatus, servedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ItemUpdates = append(f.ItemUpdates, ItemStatusCall{ItemIDs: itemIDs, Status: status, ServedAt: servedAt})
	return f.ItemStatusErr
}

// Subscribe hands out the fake's event channel.
func (f *FakeRemote) Subscribe(ctx context.Context, businessID string) (<-chan remote.ChangeEvent, error) {
	if f.SubscribeErr != nil {
		return nil, f.SubscribeErr
	}
	return f.Events, nil
}

// TransitionCount returns how many transitions were recorded.
func (f *FakeRemote) TransitionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Transitions)
}

// LastTransition returns the most recent recorded transition.
func (f *FakeRemote) LastTransition() TransitionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Transitions[len(f.Transitions)-1]
}
