package ports

import (
	"context"

	"github.com/miniblog/social-api/internal/core/domain"
)

// ListPostsFilter carries the feed query parameters.
type ListPostsFilter struct {
	Search    string   // optional: case-insensitive substring on content
	AuthorIDs []string // optional: OR-ed with Search, posts owned by these users
	Page      int      // 1-based
	Limit     int
}

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// FindByOwner returns the posts of userID, newest first.
	FindByOwner(ctx context.Context, userID string) ([]*domain.Post, error)
	UpdateContent(ctx context.Context, id, content string) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	// List returns a page of posts, newest first, and the total match count.
	List(ctx context.Context, filter ListPostsFilter) ([]*domain.Post, int64, error)
	// ExistingIDs returns the subset of ids that still exist.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)

	AddLike(ctx context.Context, postID, userID string) (*domain.Post, error)
	RemoveLike(ctx context.Context, postID, userID string) (*domain.Post, error)
}
