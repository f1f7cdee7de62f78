// Package broadcast moves named events on named channels from publishers to
// live subscribers. Delivery is best effort: nothing is acknowledged back to
// the publisher, retried, or kept for subscribers that join later.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrClosed = errors.New("broadcaster closed")

// Event is the wire shape every transport carries and every websocket
// client receives.
type Event struct {
	Channel string          `json:"channel"`
	Name    string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

func NewEvent(channel, name string, data any) (Event, error) {
	if channel == "" || name == "" {
		return Event{}, fmt.Errorf("event needs channel and name, got %q/%q", channel, name)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event data: %w", err)
	}
	return Event{Channel: channel, Name: name, Data: raw}, nil
}

// RoutingKey is the broker routing key for the event, "<channel>.<event>".
func (e Event) RoutingKey() string {
	return e.Channel + "." + e.Name
}

type Broadcaster interface {
	Broadcast(ctx context.Context, e Event) error
}

// Handler receives events from a subscription.
type Handler func(ctx context.Context, e Event)
