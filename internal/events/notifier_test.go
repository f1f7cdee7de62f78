package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jeremyjsx/postcast/internal/broadcast"
	"github.com/jeremyjsx/postcast/internal/posts"
)

type recordingBroadcaster struct {
	events []broadcast.Event
	err    error
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, e broadcast.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestNotifier_Publish(t *testing.T) {
	createdAt := time.Date(2024, 5, 1, 12, 30, 5, 0, time.UTC)
	rb := &recordingBroadcaster{}
	n := NewNotifier(rb)

	err := n.Publish(context.Background(), &posts.Post{ID: 1, AuthorID: 7, Title: "Hello", Body: "World", CreatedAt: createdAt})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(rb.events) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(rb.events))
	}
	e := rb.events[0]
	if e.Channel != "posts" || e.Name != "create" {
		t.Errorf("channel/event = %s/%s", e.Channel, e.Name)
	}
	var payload PostCreatedPayload
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	want := "[2024-05-01 12:30:05] New Post Received with title 'Hello'."
	if payload.Message != want {
		t.Errorf("message = %q, want %q", payload.Message, want)
	}
}

func TestNotifier_Publish_TitleVerbatim(t *testing.T) {
	rb := &recordingBroadcaster{}
	n := NewNotifier(rb)

	title := `It's "quoted" <b>&</b>`
	if err := n.Publish(context.Background(), &posts.Post{Title: title, CreatedAt: time.Unix(0, 0)}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	var payload PostCreatedPayload
	if err := json.Unmarshal(rb.events[0].Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	want := "[1970-01-01 00:00:00] New Post Received with title '" + title + "'."
	if payload.Message != want {
		t.Errorf("message = %q, want %q", payload.Message, want)
	}
}

func TestNotifier_Publish_TransportError(t *testing.T) {
	cause := errors.New("connection refused")
	n := NewNotifier(&recordingBroadcaster{err: cause})

	err := n.Publish(context.Background(), &posts.Post{Title: "x", CreatedAt: time.Now()})
	var pe *PublishError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want PublishError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("PublishError should wrap the transport error")
	}
	if pe.Channel != ChannelPosts || pe.Event != EventCreate {
		t.Errorf("got %+v", pe)
	}
}

func TestFormatPostCreatedMessage_NormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, loc)
	got := FormatPostCreatedMessage(ts, "T")
	if want := "[2024-01-02 01:04:05] New Post Received with title 'T'."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
