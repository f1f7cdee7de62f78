package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jeremyjsx/postcast/internal/posts"
)

type Memory struct {
	mu     sync.RWMutex
	posts  []posts.Post
	nextID int64
}

func NewMemory() *Memory {
	return &Memory{nextID: 1}
}

func (m *Memory) Create(_ context.Context, p posts.Post) (*posts.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextID
	m.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.posts = append(m.posts, p)
	out := p
	return &out, nil
}

func (m *Memory) List(_ context.Context) ([]*posts.Post, error) {
	m.mu.RLock()
	out := make([]*posts.Post, 0, len(m.posts))
	for i := range m.posts {
		p := m.posts[i]
		out = append(out, &p)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Ping lets the memory store stand in for a database in health checks.
func (m *Memory) Ping(context.Context) error {
	return nil
}

var _ posts.Repository = (*Memory)(nil)
