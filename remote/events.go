package remote

import (
	"context"
	"encoding/json"
	"log"

	"github.com/icaffe-pos/pos-device-api/models"
)

// EventType mirrors the change kinds the remote store reports.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ChangeEvent is one change notification on a business's order feed.
// Order carries the new record for inserts and updates; OldID identifies
// the removed record for deletes.
type ChangeEvent struct {
	Type  EventType     `json:"type"`
	Order *models.Order `json:"order,omitempty"`
	OldID string        `json:"old_id,omitempty"`
}

func ordersChannel(businessID string) string {
	return "orders:" + businessID
}

// Subscribe opens the realtime feed for a business and returns a channel of
// decoded events. The channel closes when ctx is cancelled or the
// subscription drops; callers recover missed events through the periodic
// pull, not by reconnecting here.
func (c *Client) Subscribe(ctx context.Context, businessID string) (<-chan ChangeEvent, error) {
	sub := c.rdb.Subscribe(ctx, ordersChannel(businessID))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, err
	}

	out := make(chan ChangeEvent, 64)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("Dropping malformed change event: %v", err)
					continue
				}
				out <- event
			}
		}
	}()
	return out, nil
}

// publish pushes a change notification onto the business feed. In
// production the remote store's triggers do this; the client mirrors it
// after its own writes so a multi-device topology works against a plain
// postgres instance too.
func (c *Client) publish(ctx context.Context, businessID string, event ChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal change event: %v", err)
		return
	}
	if err := c.rdb.Publish(ctx, ordersChannel(businessID), payload).Err(); err != nil {
		log.Printf("Failed to publish change event: %v", err)
	}
}
