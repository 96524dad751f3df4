package ports

import (
	"context"

	"github.com/miniblog/social-api/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a user; a duplicate email or username yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmailOrUsername reports whether either unique field is taken.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	// FindByIDs returns the users that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	// SearchIDsByName returns ids of users whose name contains term, case-insensitively.
	SearchIDsByName(ctx context.Context, term string) ([]string, error)

	// AddToSet atomically inserts value into the named set and returns the
	// updated user. Inserting an existing member is a no-op.
	AddToSet(ctx context.Context, userID string, set domain.UserSet, value string) (*domain.User, error)
	// RemoveFromSet atomically removes value from the named set and returns the
	// updated user.
	RemoveFromSet(ctx context.Context, userID string, set domain.UserSet, value string) (*domain.User, error)

	// ForEach streams every user to fn, stopping at the first error.
	ForEach(ctx context.Context, fn func(*domain.User) error) error
}
