package ports

import (
	"context"

	"github.com/miniblog/social-api/internal/core/domain"
)

// FeedInput carries the public feed query.
type FeedInput struct {
	Search string
	Page   int
	Limit  int
}

// FeedItem is a post with its author summary.
type FeedItem struct {
	Post   *domain.Post
	Author *domain.Summary // nil when the author no longer exists
}

// FeedResult is a page of the public feed.
type FeedResult struct {
	Items      []FeedItem
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PostService defines use-case operations for posts.
type PostService interface {
	Create(ctx context.Context, actorID, content string) (*domain.Post, error)
	Get(ctx context.Context, postID string) (*domain.Post, error)
	Update(ctx context.Context, actorID, postID, content string) (*domain.Post, error)
	Delete(ctx context.Context, actorID, postID string) error
	Feed(ctx context.Context, in FeedInput) (*FeedResult, error)
}
