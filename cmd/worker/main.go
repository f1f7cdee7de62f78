package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/config"
	"github.com/jeremyjsx/postcast/internal/events"
	"github.com/jeremyjsx/postcast/internal/logging"
)

const queueName = "postcast.posts_create.audit"

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if cfg.RabbitMQURL == "" {
		logger.Error("RABBITMQ_URL is required")
		os.Exit(1)
	}

	consumer, err := broadcast.NewRabbitMQConsumer(cfg.RabbitMQURL, broadcast.ConsumerOptions{
		Queue:      queueName,
		BindingKey: events.ChannelPosts + "." + events.EventCreate,
		Tag:        "audit-worker",
	}, logger)
	if err != nil {
		logger.Error("failed to set up consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("audit worker started", "queue", consumer.Queue())

	if err := consumer.Run(ctx, func(_ context.Context, e broadcast.Event) {
		handlePostCreated(logger, e)
	}); err != nil {
		logger.Warn("consumer stopped", "error", err)
		return
	}
	logger.Info("worker shutting down")
}

func handlePostCreated(logger *slog.Logger, e broadcast.Event) {
	if e.Channel != events.ChannelPosts || e.Name != events.EventCreate {
		logger.Debug("ignoring event", "channel", e.Channel, "event", e.Name)
		return
	}
	var p events.PostCreatedPayload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		logger.Error("invalid post created payload", "error", err)
		return
	}
	logger.Info("post created notification", "message", p.Message)
}
