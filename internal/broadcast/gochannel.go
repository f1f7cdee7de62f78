package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const metaKeyEvent = "event"

// GoChannel is an in-process broadcaster on top of watermill's gochannel.
// Each broadcast channel maps to one watermill topic. Messages published
// with no subscriber are dropped.
type GoChannel struct {
	ps     *gochannel.GoChannel
	logger *slog.Logger
}

func NewGoChannel(logger *slog.Logger) *GoChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoChannel{
		ps: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewStdLogger(false, false),
		),
		logger: logger,
	}
}

func (g *GoChannel) Broadcast(_ context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set(metaKeyEvent, e.Name)
	if err := g.ps.Publish(e.Channel, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", e.Channel, err)
	}
	return nil
}

// Subscribe delivers every event published on channel to h until ctx is
// done. It returns once the subscription is registered.
func (g *GoChannel) Subscribe(ctx context.Context, channel string, h Handler) error {
	messages, err := g.ps.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", channel, err)
	}
	go func() {
		for msg := range messages {
			var e Event
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				g.logger.Error("invalid event body", "channel", channel, "msg_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			h(ctx, e)
			msg.Ack()
		}
		g.logger.Debug("subscription ended", "channel", channel)
	}()
	return nil
}

func (g *GoChannel) Close() error {
	return g.ps.Close()
}

var _ Broadcaster = (*GoChannel)(nil)
