package posts

import "time"

const MaxTitleLength = 255

// MsgNotString is the field message for a value that was present but not a string.
const MsgNotString = "must be a string"

type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CreatePostRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required"`

	// TypeErrors holds decode-time failures keyed by field name. They are
	// reported with the other field errors once the caller is authorized.
	TypeErrors map[string]string `json:"-" validate:"-"`
}
