package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jeremyjsx/postcast/internal/auth"
)

type Service struct {
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Submit creates a post on behalf of user and announces it. A failed
// announcement is logged and never fails the call.
func (s *Service) Submit(ctx context.Context, user *auth.User, req CreatePostRequest) (*Post, error) {
	if user == nil {
		return nil, ErrForbidden
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	post, err := s.repo.Create(ctx, Post{
		AuthorID:  user.ID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		return nil, &StorageError{Op: "create post", Err: err}
	}

	if err := s.notifier.Publish(ctx, post); err != nil {
		s.logger.Warn("post created but notification failed",
			"post_id", post.ID,
			"author_id", post.AuthorID,
			"error", err,
		)
	}

	return post, nil
}

func (s *Service) List(ctx context.Context) ([]*Post, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StorageError{Op: "list posts", Err: err}
	}
	return list, nil
}

func (s *Service) validateRequest(req CreatePostRequest) error {
	fields := make(map[string]string)
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
	}
	// A mistyped value decodes as empty, so its type error wins over "required".
	for name, msg := range req.TypeErrors {
		fields[name] = msg
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "invalid"
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
