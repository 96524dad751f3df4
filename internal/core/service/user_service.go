package service

import (
	"context"
	"fmt"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// UserService serves profile pages and the activity log.
type UserService struct {
	users      ports.UserRepository
	posts      ports.PostRepository
	activities ports.ActivityRepository
}

func NewUserService(users ports.UserRepository, posts ports.PostRepository, activities ports.ActivityRepository) *UserService {
	return &UserService{users: users, posts: posts, activities: activities}
}

// Profile returns the actor with their authored posts populated.
func (s *UserService) Profile(ctx context.Context, actorID string) (*ports.ProfileView, error) {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.FindByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &ports.ProfileView{User: user, Posts: posts}, nil
}

// GetUser returns target's page and whether actor follows them.
func (s *UserService) GetUser(ctx context.Context, actorID, targetID string) (*ports.UserView, error) {
	view, err := s.Profile(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &ports.UserView{
		ProfileView: *view,
		IsFollowing: view.User.IsFollowedBy(actorID),
	}, nil
}

func (s *UserService) Activity(ctx context.Context, actorID string, limit int) ([]*domain.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.activities.ListByActor(ctx, actorID, limit)
}
