// Package realtime pushes broadcast events to browser clients over
// websockets. Clients pick channels with ?channel=posts on connect and only
// see events dispatched while they are connected.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jeremyjsx/postcast/internal/auth"
	"github.com/jeremyjsx/postcast/internal/broadcast"
)

type Options struct {
	// OriginPatterns are host patterns accepted in the Origin header.
	// A single "*" disables the check.
	OriginPatterns []string
	SendBuffer     int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 16
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	return o
}

type Hub struct {
	opts   Options
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

func NewHub(logger *slog.Logger, opts Options) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		opts:    opts.withDefaults(),
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dispatch fans e out to every client listening on its channel. A client
// whose buffer is full is dropped rather than waited on.
func (h *Hub) Dispatch(_ context.Context, e broadcast.Event) {
	frame, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("marshal event frame", "channel", e.Channel, "event", e.Name, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for c := range h.clients {
		if !c.subscribed(e.Channel) {
			continue
		}
		select {
		case c.send <- frame:
			delivered++
		default:
			h.dropLocked(c, errSlowClient)
			h.logger.Warn("dropping slow websocket client", "client_id", c.ID, "channel", e.Channel)
		}
	}
	h.logger.Debug("event dispatched", "channel", e.Channel, "event", e.Name, "recipients", delivered)
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.logger.Info("websocket client registered", "client_id", c.ID, "user_id", c.UserID, "total_clients", len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.dropLocked(c, nil)
		h.logger.Info("websocket client unregistered", "client_id", c.ID, "total_clients", len(h.clients))
	}
}

func (h *Hub) dropLocked(c *Client, reason error) {
	delete(h.clients, c)
	c.dropErr = reason
	close(c.send)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c, errHubClosed)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	channels := r.URL.Query()["channel"]
	if len(channels) == 0 {
		http.Error(w, "channel query parameter is required", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.opts.OriginPatterns,
		InsecureSkipVerify: len(h.opts.OriginPatterns) == 1 && h.opts.OriginPatterns[0] == "*",
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		ID:       uuid.NewString(),
		channels: make(map[string]bool, len(channels)),
		send:     make(chan []byte, h.opts.SendBuffer),
		conn:     conn,
	}
	if u := auth.UserFrom(r.Context()); u != nil {
		c.UserID = u.ID
	}
	for _, ch := range channels {
		c.channels[ch] = true
	}

	if !h.register(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unregister(c)

	ctx := conn.CloseRead(r.Context())
	err = c.writeLoop(ctx, h.opts.WriteTimeout, h.opts.PingInterval)

	switch {
	case errors.Is(err, errSlowClient):
		conn.Close(websocket.StatusPolicyViolation, "client too slow")
	case errors.Is(err, errHubClosed):
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			h.logger.Warn("websocket write failed", "client_id", c.ID, "error", err)
		}
		conn.CloseNow()
	}
}
