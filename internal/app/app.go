package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeremyjsx/postcast/internal/auth"
	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/config"
	"github.com/jeremyjsx/postcast/internal/events"
	"github.com/jeremyjsx/postcast/internal/handlers"
	"github.com/jeremyjsx/postcast/internal/middleware"
	"github.com/jeremyjsx/postcast/internal/posts"
	"github.com/jeremyjsx/postcast/internal/realtime"
	"github.com/jeremyjsx/postcast/internal/store"
)

type repository interface {
	posts.Repository
	handlers.Pinger
}

type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
	hub     *realtime.Hub

	// background runs until ctx is done; nil when nothing needs to run.
	background func(ctx context.Context) error
	closers    []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a := &App{cfg: cfg, logger: logger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	a.hub = realtime.NewHub(logger, realtime.Options{OriginPatterns: cfg.WSAllowedOrigins})
	a.closers = append(a.closers, func() error { a.hub.Close(); return nil })

	b, brokerPing, err := a.openBroadcaster(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var parser middleware.TokenParser
	if cfg.JWTSecret != "" {
		issuer, err := auth.NewIssuer(cfg.JWTSecret, 0)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		parser = issuer
	} else {
		logger.Warn("JWT_SECRET is not set, every request is anonymous")
	}

	svc := posts.NewService(repo, events.NewNotifier(b), logger)
	mux := handlers.Routes{
		Posts: handlers.NewPostsHandler(svc, logger),
		Health: handlers.Health(&handlers.HealthDeps{
			DB:         repo,
			BrokerPing: brokerPing,
			Clients:    a.hub.ClientCount,
		}),
		Realtime: a.hub,
	}.Mux()

	a.handler = middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recover(logger),
		middleware.Authenticate(parser, logger),
	)

	logger.Info("app initialized",
		"database", cfg.DatabaseDriver,
		"broadcast", cfg.BroadcastDriver,
	)
	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Hub() *realtime.Hub {
	return a.hub
}

func (a *App) openRepository(ctx context.Context) (repository, error) {
	if a.cfg.DatabaseDriver == config.DriverMemory {
		return store.NewMemory(), nil
	}
	dialect, err := store.ParseDialect(a.cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(ctx, dialect, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	return store.NewSQLRepository(db, dialect), nil
}

// openBroadcaster picks the transport and feeds the hub from it.
func (a *App) openBroadcaster(ctx context.Context) (broadcast.Broadcaster, func() error, error) {
	switch a.cfg.BroadcastDriver {
	case config.BroadcastNoop:
		return broadcast.Noop{}, nil, nil

	case config.BroadcastRabbitMQ:
		pub, err := broadcast.NewRabbitMQ(a.cfg.RabbitMQURL)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pub.Close)

		consumer, err := broadcast.NewRabbitMQConsumer(a.cfg.RabbitMQURL, broadcast.ConsumerOptions{
			BindingKey: events.ChannelPosts + ".*",
			Tag:        "postcast-api",
		}, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, consumer.Close)
		a.background = func(ctx context.Context) error {
			return consumer.Run(ctx, a.hub.Dispatch)
		}
		url := a.cfg.RabbitMQURL
		return pub, func() error { return broadcast.Ping(url) }, nil

	default:
		gc := broadcast.NewGoChannel(a.logger)
		a.closers = append(a.closers, gc.Close)
		if err := gc.Subscribe(ctx, events.ChannelPosts, a.hub.Dispatch); err != nil {
			return nil, nil, err
		}
		return gc, nil, nil
	}
}

// Run serves HTTP until ctx is done, then shuts down within the configured
// timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if a.background != nil {
		go func() {
			if err := a.background(ctx); err != nil {
				errCh <- fmt.Errorf("broadcast relay: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case runErr = <-errCh:
		a.logger.Error("server stopped", "error", runErr)
	}

	a.hub.Close()
	shCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		a.logger.Warn("graceful shutdown failed", "error", err)
	}
	if err := a.Close(); err != nil {
		a.logger.Warn("closing resources", "error", err)
	}
	return runErr
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
