package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"

	"github.com/coder/websocket"
	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/events"
	"github.com/spf13/cobra"
)

var (
	listenAddr    string
	listenChannel string
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Connect to /ws and print every event received",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := listenURL(listenAddr, listenChannel)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		conn, _, err := websocket.Dial(ctx, u, nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", u, err)
		}
		defer conn.CloseNow()

		fmt.Fprintf(cmd.ErrOrStderr(), "listening on %s\n", u)
		for {
			_, frame, err := conn.Read(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
					return nil
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatFrame(frame))
		}
	},
}

func listenURL(addr, channel string) (string, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse --addr: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"channel": {channel}}.Encode()
	return u.String(), nil
}

// formatFrame prints the message of post notifications and the raw frame
// for anything else.
func formatFrame(frame []byte) string {
	var e broadcast.Event
	if err := json.Unmarshal(frame, &e); err != nil {
		return string(frame)
	}
	if e.Channel == events.ChannelPosts && e.Name == events.EventCreate {
		var p events.PostCreatedPayload
		if err := json.Unmarshal(e.Data, &p); err == nil && p.Message != "" {
			return p.Message
		}
	}
	return fmt.Sprintf("%s.%s %s", e.Channel, e.Name, e.Data)
}

func init() {
	listenCmd.Flags().StringVar(&listenAddr, "addr", "http://localhost:8080", "server base URL")
	listenCmd.Flags().StringVar(&listenChannel, "channel", events.ChannelPosts, "channel to subscribe to")
	rootCmd.AddCommand(listenCmd)
}
