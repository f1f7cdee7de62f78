package events

import (
	"fmt"
	"time"
)

// Channel and event names are part of the client contract.
const (
	ChannelPosts = "posts"
	EventCreate  = "create"
)

// CreatedAtLayout renders post timestamps inside notification messages.
const CreatedAtLayout = time.DateTime

type PostCreatedPayload struct {
	Message string `json:"message"`
}

// FormatPostCreatedMessage inserts the title verbatim; escaping is left to
// whatever renders the message.
func FormatPostCreatedMessage(createdAt time.Time, title string) string {
	return fmt.Sprintf("[%s] New Post Received with title '%s'.", createdAt.UTC().Format(CreatedAtLayout), title)
}
