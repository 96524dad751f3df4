package ports

import (
	"context"

	"github.com/miniblog/social-api/internal/core/domain"
)

// ProfileView is a user with populated authored posts.
type ProfileView struct {
	User  *domain.User
	Posts []*domain.Post
}

// UserView is another user's page as seen by the actor.
type UserView struct {
	ProfileView
	IsFollowing bool
}

// UserService defines read use-cases for user pages.
type UserService interface {
	Profile(ctx context.Context, actorID string) (*ProfileView, error)
	GetUser(ctx context.Context, actorID, targetID string) (*UserView, error)
	Activity(ctx context.Context, actorID string, limit int) ([]*domain.Activity, error)
}
