package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

type stubPostService struct {
	createFn func(ctx context.Context, actorID, content string) (*domain.Post, error)
	getFn    func(ctx context.Context, postID string) (*domain.Post, error)
	updateFn func(ctx context.Context, actorID, postID, content string) (*domain.Post, error)
	deleteFn func(ctx context.Context, actorID, postID string) error
	feedFn   func(ctx context.Context, in ports.FeedInput) (*ports.FeedResult, error)
}

func (s *stubPostService) Create(ctx context.Context, actorID, content string) (*domain.Post, error) {
	return s.createFn(ctx, actorID, content)
}

func (s *stubPostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	return s.getFn(ctx, postID)
}

func (s *stubPostService) Update(ctx context.Context, actorID, postID, content string) (*domain.Post, error) {
	return s.updateFn(ctx, actorID, postID, content)
}

func (s *stubPostService) Delete(ctx context.Context, actorID, postID string) error {
	return s.deleteFn(ctx, actorID, postID)
}

func (s *stubPostService) Feed(ctx context.Context, in ports.FeedInput) (*ports.FeedResult, error) {
	return s.feedFn(ctx, in)
}

type stubRelationshipService struct {
	followFn func(ctx context.Context, actorID, targetID string) (*ports.FollowResult, error)
	likeFn   func(ctx context.Context, actorID, postID string) (*ports.LikeResult, error)
}

func (s *stubRelationshipService) ToggleFollow(ctx context.Context, actorID, targetID string) (*ports.FollowResult, error) {
	return s.followFn(ctx, actorID, targetID)
}

func (s *stubRelationshipService) ToggleLike(ctx context.Context, actorID, postID string) (*ports.LikeResult, error) {
	return s.likeFn(ctx, actorID, postID)
}

func TestPostHandler_Create(t *testing.T) {
	e := newTestEcho()
	posts := &stubPostService{
		createFn: func(ctx context.Context, actorID, content string) (*domain.Post, error) {
			if actorID != "u1" || content != "hello world" {
				t.Fatalf("unexpected args %s %q", actorID, content)
			}
			return &domain.Post{ID: "p1", UserID: actorID, Content: content, CreatedAt: time.Now()}, nil
		},
	}
	h := NewPostHandler(posts, &stubRelationshipService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/posts", `{"content":"hello world"}`), rec)
	withIdentity(c, "u1")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "p1" || resp.UserID != "u1" || resp.Likes == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPostHandler_Create_EmptyContent(t *testing.T) {
	e := newTestEcho()
	h := NewPostHandler(&stubPostService{}, &stubRelationshipService{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/api/posts", `{"content":""}`), httptest.NewRecorder())
	withIdentity(c, "u1")

	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPostHandler_Update_Forbidden(t *testing.T) {
	e := newTestEcho()
	posts := &stubPostService{
		updateFn: func(ctx context.Context, actorID, postID, content string) (*domain.Post, error) {
			if postID != "p1" {
				t.Fatalf("unexpected post id %s", postID)
			}
			return nil, domain.ErrForbidden
		},
	}
	h := NewPostHandler(posts, &stubRelationshipService{})

	c := e.NewContext(jsonRequest(http.MethodPut, "/api/posts/p1", `{"content":"edited"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("p1")
	withIdentity(c, "bob")

	if err := h.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPostHandler_Delete(t *testing.T) {
	e := newTestEcho()
	var deleted string
	posts := &stubPostService{
		deleteFn: func(ctx context.Context, actorID, postID string) error {
			deleted = postID
			return nil
		},
	}
	h := NewPostHandler(posts, &stubRelationshipService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/posts/p1", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	withIdentity(c, "u1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deleted != "p1" || rec.Code != http.StatusOK {
		t.Fatalf("expected p1 deleted with 200, got %q %d", deleted, rec.Code)
	}
}

func TestPostHandler_Feed_PassesQuery(t *testing.T) {
	e := newTestEcho()
	posts := &stubPostService{
		feedFn: func(ctx context.Context, in ports.FeedInput) (*ports.FeedResult, error) {
			if in.Search != "alice" || in.Page != 2 || in.Limit != 5 {
				t.Fatalf("unexpected feed input %+v", in)
			}
			return &ports.FeedResult{
				Items: []ports.FeedItem{{
					Post:   &domain.Post{ID: "p1", UserID: "u1", Content: "hello world"},
					Author: &domain.Summary{ID: "u1", Username: "alice", Name: "Alice"},
				}},
				Total: 6, Page: 2, Limit: 5, TotalPages: 2,
			}, nil
		},
	}
	h := NewPostHandler(posts, &stubRelationshipService{})

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/posts?search=alice&page=2&limit=5", nil), rec)

	if err := h.Feed(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp feedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Author == nil || resp.Items[0].Author.Username != "alice" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.TotalPages != 2 || resp.Total != 6 {
		t.Fatalf("unexpected pagination: %+v", resp)
	}
}

func TestPostHandler_Feed_RejectsOversizedLimit(t *testing.T) {
	e := newTestEcho()
	h := NewPostHandler(&stubPostService{}, &stubRelationshipService{})

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/posts?limit=500", nil), httptest.NewRecorder())

	if err := h.Feed(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestPostHandler_ToggleLike(t *testing.T) {
	e := newTestEcho()
	rel := &stubRelationshipService{
		likeFn: func(ctx context.Context, actorID, postID string) (*ports.LikeResult, error) {
			return &ports.LikeResult{Liked: true, LikeCount: 3}, nil
		},
	}
	h := NewPostHandler(&stubPostService{}, rel)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/posts/p1/toggle-like", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	withIdentity(c, "u1")

	if err := h.ToggleLike(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["liked"] != true || resp["likeCount"] != float64(3) {
		t.Fatalf("unexpected response: %v", resp)
	}
}
