package posts

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jeremyjsx/postcast/internal/auth"
)

type mockRepo struct {
	create func(ctx context.Context, p Post) (*Post, error)
	list   func(ctx context.Context) ([]*Post, error)

	creates int
}

func (m *mockRepo) Create(ctx context.Context, p Post) (*Post, error) {
	m.creates++
	if m.create != nil {
		return m.create(ctx, p)
	}
	p.ID = int64(m.creates)
	return &p, nil
}

func (m *mockRepo) List(ctx context.Context) ([]*Post, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, nil
}

type mockNotifier struct {
	publish func(ctx context.Context, p *Post) error

	calls []*Post
}

func (m *mockNotifier) Publish(ctx context.Context, p *Post) error {
	m.calls = append(m.calls, p)
	if m.publish != nil {
		return m.publish(ctx, p)
	}
	return nil
}

func testService(repo *mockRepo, n *mockNotifier, now time.Time) *Service {
	svc := NewService(repo, n, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_Submit(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		repo := &mockRepo{
			create: func(_ context.Context, p Post) (*Post, error) {
				if p.AuthorID != 7 || p.Title != "Hello" || p.Body != "World" || !p.CreatedAt.Equal(now) {
					t.Errorf("Create got %+v", p)
				}
				p.ID = 42
				return &p, nil
			},
		}
		n := &mockNotifier{}
		svc := testService(repo, n, now)

		got, err := svc.Submit(context.Background(), &auth.User{ID: 7}, CreatePostRequest{Title: "Hello", Body: "World"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if got.ID != 42 || got.AuthorID != 7 {
			t.Errorf("got %+v", got)
		}
		if repo.creates != 1 {
			t.Errorf("creates = %d, want 1", repo.creates)
		}
		if len(n.calls) != 1 || n.calls[0] != got {
			t.Errorf("publish calls = %v", n.calls)
		}
	})

	t.Run("anonymous user", func(t *testing.T) {
		repo := &mockRepo{}
		n := &mockNotifier{}
		svc := testService(repo, n, now)

		_, err := svc.Submit(context.Background(), nil, CreatePostRequest{Title: "Hello", Body: "World"})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("got err %v", err)
		}
		if repo.creates != 0 || len(n.calls) != 0 {
			t.Errorf("side effects: creates=%d publishes=%d", repo.creates, len(n.calls))
		}
	})

	t.Run("publish failure does not fail creation", func(t *testing.T) {
		repo := &mockRepo{}
		n := &mockNotifier{publish: func(context.Context, *Post) error {
			return errors.New("broker unreachable")
		}}
		svc := testService(repo, n, now)

		got, err := svc.Submit(context.Background(), &auth.User{ID: 1}, CreatePostRequest{Title: "T", Body: "B"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if got == nil || got.ID != 1 {
			t.Errorf("got %+v", got)
		}
		if len(n.calls) != 1 {
			t.Errorf("publish calls = %d", len(n.calls))
		}
	})

	t.Run("storage failure skips notification", func(t *testing.T) {
		cause := errors.New("db down")
		repo := &mockRepo{create: func(context.Context, Post) (*Post, error) { return nil, cause }}
		n := &mockNotifier{}
		svc := testService(repo, n, now)

		_, err := svc.Submit(context.Background(), &auth.User{ID: 1}, CreatePostRequest{Title: "T", Body: "B"})
		var se *StorageError
		if !errors.As(err, &se) || !errors.Is(err, cause) {
			t.Errorf("got err %v", err)
		}
		if len(n.calls) != 0 {
			t.Errorf("publish calls = %d", len(n.calls))
		}
	})

	t.Run("anonymous user with mistyped fields", func(t *testing.T) {
		repo := &mockRepo{}
		svc := testService(repo, &mockNotifier{}, now)

		req := CreatePostRequest{TypeErrors: map[string]string{"title": MsgNotString}}
		if _, err := svc.Submit(context.Background(), nil, req); !errors.Is(err, ErrForbidden) {
			t.Errorf("got err %v, want ErrForbidden", err)
		}
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		repo := &mockRepo{}
		svc := testService(repo, &mockNotifier{}, now)

		got, err := svc.Submit(context.Background(), &auth.User{ID: 1}, CreatePostRequest{Title: "  Hi  ", Body: "\tthere\n"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if got.Title != "Hi" || got.Body != "there" {
			t.Errorf("got %q / %q", got.Title, got.Body)
		}
	})
}

func TestService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreatePostRequest
		want map[string]string
	}{
		{
			name: "empty title",
			req:  CreatePostRequest{Title: "", Body: "x"},
			want: map[string]string{"title": "required"},
		},
		{
			name: "blank body",
			req:  CreatePostRequest{Title: "x", Body: "   "},
			want: map[string]string{"body": "required"},
		},
		{
			name: "both missing",
			req:  CreatePostRequest{},
			want: map[string]string{"title": "required", "body": "required"},
		},
		{
			name: "mistyped title",
			req:  CreatePostRequest{Body: "x", TypeErrors: map[string]string{"title": MsgNotString}},
			want: map[string]string{"title": MsgNotString},
		},
		{
			name: "mistyped body with empty title",
			req:  CreatePostRequest{TypeErrors: map[string]string{"body": MsgNotString}},
			want: map[string]string{"title": "required", "body": MsgNotString},
		},
		{
			name: "title too long",
			req:  CreatePostRequest{Title: strings.Repeat("a", MaxTitleLength+1), Body: "x"},
			want: map[string]string{"title": "must be at most 255 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			n := &mockNotifier{}
			svc := testService(repo, n, time.Now())

			_, err := svc.Submit(context.Background(), &auth.User{ID: 1}, tt.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got err %v, want ValidationError", err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidationError should match ErrInvalidInput")
			}
			if len(ve.Fields) != len(tt.want) {
				t.Errorf("fields = %v, want %v", ve.Fields, tt.want)
			}
			for k, v := range tt.want {
				if ve.Fields[k] != v {
					t.Errorf("field %s = %q, want %q", k, ve.Fields[k], v)
				}
			}
			if repo.creates != 0 || len(n.calls) != 0 {
				t.Errorf("side effects: creates=%d publishes=%d", repo.creates, len(n.calls))
			}
		})
	}
}

func TestService_Submit_TitleBoundary(t *testing.T) {
	svc := testService(&mockRepo{}, &mockNotifier{}, time.Now())

	// 255 multi-byte runes is still within the limit.
	title := strings.Repeat("é", MaxTitleLength)
	if _, err := svc.Submit(context.Background(), &auth.User{ID: 1}, CreatePostRequest{Title: title, Body: "b"}); err != nil {
		t.Errorf("255-rune title rejected: %v", err)
	}
}

func TestService_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		want := []*Post{{ID: 2}, {ID: 1}}
		repo := &mockRepo{list: func(context.Context) ([]*Post, error) { return want, nil }}
		svc := testService(repo, &mockNotifier{}, time.Now())

		got, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 || got[0].ID != 2 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("repo error", func(t *testing.T) {
		repo := &mockRepo{list: func(context.Context) ([]*Post, error) { return nil, errors.New("boom") }}
		svc := testService(repo, &mockNotifier{}, time.Now())

		_, err := svc.List(context.Background())
		var se *StorageError
		if !errors.As(err, &se) {
			t.Errorf("got err %v", err)
		}
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "required", "body": "required"}}
	if got, want := err.Error(), "validation failed: body: required, title: required"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
