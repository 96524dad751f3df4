package ports

import (
	"context"
	"time"

	"github.com/miniblog/social-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Age      int
}

// Identity is the decoded claim of a valid credential.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// Credential is a freshly minted token and its expiry.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// TokenVerifier is the part of AuthService the Auth Gate depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type AuthService interface {
	TokenVerifier
	Register(ctx context.Context, in RegisterInput) (*domain.User, *Credential, error)
	Login(ctx context.Context, email, password string) (*Credential, *domain.User, error)
	Refresh(ctx context.Context, id Identity) (*Credential, error)
	Logout(ctx context.Context, id Identity) error
}
