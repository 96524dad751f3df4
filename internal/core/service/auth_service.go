package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
	"github.com/miniblog/social-api/internal/pkg/metrics"
)

// MinBcryptCost is the lowest hashing cost accepted for stored passwords.
const MinBcryptCost = 10

// AuthOptions configures credential issuance.
type AuthOptions struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService implements registration, login and the session credential lifecycle.
type AuthService struct {
	repo    ports.UserRepository
	revoker ports.TokenRevoker
	tokens  tokenIssuer
	cost    int
	log     zerolog.Logger

	// dummyHash is compared against when the email is unknown so both
	// failure paths spend a bcrypt comparison.
	dummyHash []byte
}

func NewAuthService(repo ports.UserRepository, revoker ports.TokenRevoker, opts AuthOptions, log zerolog.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost < MinBcryptCost {
		opts.BcryptCost = MinBcryptCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy-password"), opts.BcryptCost)

	return &AuthService{
		repo:      repo,
		revoker:   revoker,
		tokens:    tokenIssuer{secret: []byte(opts.JWTSecret), ttl: opts.TokenTTL, now: time.Now},
		cost:      opts.BcryptCost,
		log:       log,
		dummyHash: dummy,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, *ports.Credential, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Username == "" || in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, nil, fmt.Errorf("%w: username, email, password and name are required", domain.ErrValidation)
	}
	if in.Age <= 0 {
		return nil, nil, fmt.Errorf("%w: age must be positive", domain.ErrValidation)
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, nil, domain.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Age:          in.Age,
		Posts:        []string{},
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("register: %w", err)
	}

	cred, err := s.tokens.issue(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()
	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, cred, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Credential, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	cred, err := s.tokens.issue(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return cred, user, nil
}

// Verify decodes a credential and rejects it when it has been revoked.
// A revocation store outage is logged and the signature check alone decides.
func (s *AuthService) Verify(ctx context.Context, token string) (*ports.Identity, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	id, err := s.tokens.parse(token)
	if err != nil {
		return nil, err
	}

	if id.TokenID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, id.TokenID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", id.UserID).Msg("revocation check failed, accepting token")
		} else if revoked {
			return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
		}
	}
	return id, nil
}

// Refresh mints a new credential for id and retires the old one.
func (s *AuthService) Refresh(ctx context.Context, id ports.Identity) (*ports.Credential, error) {
	cred, err := s.tokens.issue(id.UserID, id.Email)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, id)
	metrics.AuthAttemptsTotal.WithLabelValues("refresh", "success").Inc()
	return cred, nil
}

// Logout retires the credential behind id until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, id ports.Identity) error {
	s.revoke(ctx, id)
	metrics.AuthAttemptsTotal.WithLabelValues("logout", "success").Inc()
	return nil
}

func (s *AuthService) revoke(ctx context.Context, id ports.Identity) {
	if id.TokenID == "" || !id.ExpiresAt.After(time.Now()) {
		return
	}
	if err := s.revoker.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		s.log.Warn().Err(err).Str("user_id", id.UserID).Msg("failed to revoke token")
	}
}
