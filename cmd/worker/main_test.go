package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/events"
)

func TestHandlePostCreated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, err := broadcast.NewEvent(events.ChannelPosts, events.EventCreate, events.PostCreatedPayload{Message: "hi there"})
	if err != nil {
		t.Fatal(err)
	}
	handlePostCreated(logger, e)
	if !strings.Contains(buf.String(), `"message":"hi there"`) {
		t.Errorf("log = %s", buf.String())
	}

	buf.Reset()
	handlePostCreated(logger, broadcast.Event{Channel: "other", Name: "x"})
	if !strings.Contains(buf.String(), "ignoring event") {
		t.Errorf("log = %s", buf.String())
	}
}
