package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
	"github.com/miniblog/social-api/internal/pkg/metrics"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type PostService struct {
	posts    ports.PostRepository
	users    ports.UserRepository
	activity ports.ActivityRecorder
	log      zerolog.Logger
}

func NewPostService(posts ports.PostRepository, users ports.UserRepository, activity ports.ActivityRecorder, log zerolog.Logger) *PostService {
	return &PostService{posts: posts, users: users, activity: activity, log: log}
}

// Create stores a post owned by actor and appends it to the actor's authored set.
func (s *PostService) Create(ctx context.Context, actorID, content string) (*domain.Post, error) {
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, actorID); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	now := time.Now().UTC()
	post, err := s.posts.Create(ctx, &domain.Post{
		UserID:    actorID,
		Content:   content,
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	if _, err := s.users.AddToSet(ctx, actorID, domain.SetPosts, post.ID); err != nil {
		compensate(ctx, s.log, "undo create post", func(ctx context.Context) error {
			return s.posts.Delete(ctx, post.ID)
		})
		return nil, fmt.Errorf("create post: link to author: %w", err)
	}

	metrics.PostOperationsTotal.WithLabelValues("create").Inc()
	recordActivity(s.activity, actorID, domain.ActivityPostCreated, post.ID)
	s.log.Info().Str("post_id", post.ID).Str("user_id", actorID).Msg("post created")
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*domain.Post, error) {
	return s.posts.FindByID(ctx, postID)
}

// Update replaces the content of a post owned by actor.
func (s *PostService) Update(ctx context.Context, actorID, postID, content string) (*domain.Post, error) {
	content, err := domain.NormalizeContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, actorID, postID); err != nil {
		return nil, err
	}

	post, err := s.posts.UpdateContent(ctx, postID, content)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	metrics.PostOperationsTotal.WithLabelValues("update").Inc()
	recordActivity(s.activity, actorID, domain.ActivityPostUpdated, postID)
	return post, nil
}

// Delete removes a post owned by actor. The id is pulled from the author's
// set before the document goes away, so the authored list never points at a
// deleted post.
func (s *PostService) Delete(ctx context.Context, actorID, postID string) error {
	post, err := s.owned(ctx, actorID, postID)
	if err != nil {
		return err
	}

	if _, err := s.users.RemoveFromSet(ctx, post.UserID, domain.SetPosts, postID); err != nil {
		return fmt.Errorf("delete post: unlink from author: %w", err)
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		compensate(ctx, s.log, "undo unlink post", func(ctx context.Context) error {
			_, err := s.users.AddToSet(ctx, post.UserID, domain.SetPosts, postID)
			return err
		})
		return fmt.Errorf("delete post: %w", err)
	}

	metrics.PostOperationsTotal.WithLabelValues("delete").Inc()
	recordActivity(s.activity, actorID, domain.ActivityPostDeleted, postID)
	s.log.Info().Str("post_id", postID).Str("user_id", actorID).Msg("post deleted")
	return nil
}

func (s *PostService) owned(ctx context.Context, actorID, postID string) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, domain.ErrForbidden
	}
	return post, nil
}

// Feed returns the public feed, newest first. A search term matches the
// author's name or the post content, case-insensitively.
func (s *PostService) Feed(ctx context.Context, in ports.FeedInput) (*ports.FeedResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	filter := ports.ListPostsFilter{Page: page, Limit: limit}
	if term := strings.TrimSpace(in.Search); term != "" {
		ids, err := s.users.SearchIDsByName(ctx, term)
		if err != nil {
			return nil, fmt.Errorf("feed: search authors: %w", err)
		}
		filter.Search = term
		filter.AuthorIDs = ids
	}

	posts, total, err := s.posts.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	authors, err := s.authorsOf(ctx, posts)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	items := make([]ports.FeedItem, 0, len(posts))
	for _, p := range posts {
		item := ports.FeedItem{Post: p}
		if a, ok := authors[p.UserID]; ok {
			sum := a.Summary()
			item.Author = &sum
		}
		items = append(items, item)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.FeedResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func (s *PostService) authorsOf(ctx context.Context, posts []*domain.Post) (map[string]*domain.User, error) {
	seen := make(map[string]struct{}, len(posts))
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		seen[p.UserID] = struct{}{}
		ids = append(ids, p.UserID)
	}
	if len(ids) == 0 {
		return map[string]*domain.User{}, nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
