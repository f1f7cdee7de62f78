package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ConsumerOptions struct {
	// Queue is left empty for a server-named, exclusive, auto-delete queue.
	Queue      string
	BindingKey string
	Tag        string
}

// RabbitMQConsumer reads events off the broadcast exchange.
type RabbitMQConsumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	tag    string
	logger *slog.Logger
}

func NewRabbitMQConsumer(url string, opts ConsumerOptions, logger *slog.Logger) (*RabbitMQConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) (*RabbitMQConsumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := declareExchange(ch); err != nil {
		return fail("declare exchange", err)
	}

	durable := opts.Queue != ""
	q, err := ch.QueueDeclare(opts.Queue, durable, !durable, !durable, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, opts.BindingKey, ExchangeName, false, nil); err != nil {
		return fail("bind queue", err)
	}

	return &RabbitMQConsumer{conn: conn, ch: ch, queue: q.Name, tag: opts.Tag, logger: logger}, nil
}

func (c *RabbitMQConsumer) Queue() string {
	return c.queue
}

// Run consumes until ctx is done or the broker closes the delivery channel.
func (c *RabbitMQConsumer) Run(ctx context.Context, h Handler) error {
	deliveries, err := c.ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, d, h)
		}
	}
}

func (c *RabbitMQConsumer) handle(ctx context.Context, d amqp.Delivery, h Handler) {
	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		c.logger.Error("invalid event body", "routing_key", d.RoutingKey, "error", err)
		_ = d.Nack(false, false)
		return
	}
	h(ctx, e)
	if err := d.Ack(false); err != nil {
		c.logger.Error("failed to ack", "error", err)
	}
}

func (c *RabbitMQConsumer) Close() error {
	err := c.ch.Close()
	if closeErr := c.conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
