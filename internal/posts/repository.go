package posts

import "context"

// Repository owns ID assignment and serialises its own writes.
type Repository interface {
	Create(ctx context.Context, p Post) (*Post, error)
	List(ctx context.Context) ([]*Post, error)
}

// Notifier announces a freshly persisted post to live subscribers.
type Notifier interface {
	Publish(ctx context.Context, p *Post) error
}
