package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/jeremyjsx/postcast/internal/auth"
	"github.com/jeremyjsx/postcast/internal/middleware"
	"github.com/jeremyjsx/postcast/internal/posts"
)

const (
	createdMessage = "Post created successfully."

	// maxCreateBodyBytes caps JSON and form bodies alike.
	maxCreateBodyBytes = 32 << 20
)

type PostsHandler struct {
	svc    *posts.Service
	logger *slog.Logger
}

func NewPostsHandler(svc *posts.Service, logger *slog.Logger) *PostsHandler {
	return &PostsHandler{
		svc:    svc,
		logger: logger,
	}
}

type createPostResponse struct {
	Message string      `json:"message"`
	Post    *posts.Post `json:"post"`
}

type listPostsResponse struct {
	Data []*posts.Post `json:"data"`
}

// Create accepts either a JSON body or a urlencoded/multipart form.
func (h *PostsHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeCreateRequest(w, r)
		if !ok {
			return
		}

		post, err := h.svc.Submit(r.Context(), auth.UserFrom(r.Context()), req)
		if err != nil {
			var verr *posts.ValidationError
			switch {
			case errors.Is(err, posts.ErrForbidden):
				writeError(w, r, http.StatusForbidden, "FORBIDDEN", "authentication required", nil)
			case errors.As(err, &verr):
				writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "validation failed", verr.Fields)
			case errors.Is(err, posts.ErrInvalidInput):
				writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request", nil)
			default:
				h.logger.Error("create post failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
				writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			}
			return
		}

		writeJSON(w, http.StatusCreated, createPostResponse{Message: createdMessage, Post: post})
	}
}

func (h *PostsHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.svc.List(r.Context())
		if err != nil {
			h.logger.Error("list posts failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
			return
		}
		if list == nil {
			list = []*posts.Post{}
		}
		writeJSON(w, http.StatusOK, listPostsResponse{Data: list})
	}
}

func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (posts.CreatePostRequest, bool) {
	var req posts.CreatePostRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var err error
		if req, err = decodeJSONCreateRequest(r.Body); err != nil {
			writeBodyError(w, r, err, "invalid JSON body")
			return req, false
		}
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxCreateBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			writeBodyError(w, r, err, "invalid form body")
			return req, false
		}
		req.Title = r.PostFormValue("title")
		req.Body = r.PostFormValue("body")
	default:
		writeError(w, r, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "expected JSON or form body", nil)
		return req, false
	}
	return req, true
}

// decodeJSONCreateRequest keeps going when title or body has the wrong JSON
// type so the mistake can be reported per field. Absent and null values
// decode as empty strings.
func decodeJSONCreateRequest(body io.Reader) (posts.CreatePostRequest, error) {
	var req posts.CreatePostRequest
	var raw struct {
		Title json.RawMessage `json:"title"`
		Body  json.RawMessage `json:"body"`
	}
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return req, err
	}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"title", raw.Title, &req.Title},
		{"body", raw.Body, &req.Body},
	}
	for _, f := range fields {
		if len(f.raw) == 0 || string(f.raw) == "null" {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			if req.TypeErrors == nil {
				req.TypeErrors = make(map[string]string)
			}
			req.TypeErrors[f.name] = posts.MsgNotString
		}
	}
	return req, nil
}

func writeBodyError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "request body too large", nil)
		return
	}
	writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", msg, nil)
}
