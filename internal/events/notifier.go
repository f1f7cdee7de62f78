package events

import (
	"context"
	"fmt"

	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/posts"
)

// PublishError means the broadcast transport could not take the event.
// Subscriber-side delivery problems never produce one.
type PublishError struct {
	Channel string
	Event   string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s/%s: %v", e.Channel, e.Event, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Notifier turns created posts into "create" events on the "posts" channel.
type Notifier struct {
	b broadcast.Broadcaster
}

func NewNotifier(b broadcast.Broadcaster) *Notifier {
	return &Notifier{b: b}
}

func (n *Notifier) Publish(ctx context.Context, p *posts.Post) error {
	e, err := broadcast.NewEvent(ChannelPosts, EventCreate, PostCreatedPayload{
		Message: FormatPostCreatedMessage(p.CreatedAt, p.Title),
	})
	if err != nil {
		return &PublishError{Channel: ChannelPosts, Event: EventCreate, Err: err}
	}
	if err := n.b.Broadcast(ctx, e); err != nil {
		return &PublishError{Channel: ChannelPosts, Event: EventCreate, Err: err}
	}
	return nil
}

var _ posts.Notifier = (*Notifier)(nil)
