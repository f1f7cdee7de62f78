package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
)

var (
	errSlowClient = errors.New("client too slow")
	errHubClosed  = errors.New("hub closed")
)

// Client is one websocket connection and the channels it listens on.
type Client struct {
	ID       string
	UserID   int64
	channels map[string]bool
	send     chan []byte
	conn     *websocket.Conn

	// dropErr is set by the hub, under its lock, right before send is closed.
	dropErr error
}

func (c *Client) subscribed(channel string) bool {
	return c.channels[channel]
}

func (c *Client) writeLoop(ctx context.Context, writeTimeout, pingInterval time.Duration) error {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-c.send:
			if !ok {
				return c.dropErr
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}

		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}
