package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

func newTestAuthService(store *memStore, revoker *memRevoker) *AuthService {
	return NewAuthService(store.userRepo(), revoker, AuthOptions{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
	}, zerolog.Nop())
}

func aliceInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "wonderland",
		Name:     "Alice Liddell",
		Age:      30,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(store, newMemRevoker())

	in := aliceInput()
	in.Email = "  Alice@Example.COM "
	user, cred, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "wonderland" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("wonderland")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.Posts == nil || user.Followers == nil || user.Following == nil {
		t.Fatalf("expected empty, non-nil sets: %+v", user)
	}

	id, err := svc.Verify(context.Background(), cred.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if id.UserID != user.ID || id.Email != user.Email {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !cred.ExpiresAt.After(time.Now()) {
		t.Fatalf("credential already expired: %v", cred.ExpiresAt)
	}
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(store, newMemRevoker())
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, aliceInput()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	sameEmail := aliceInput()
	sameEmail.Username = "alice2"
	if _, _, err := svc.Register(ctx, sameEmail); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}

	sameUsername := aliceInput()
	sameUsername.Email = "other@example.com"
	if _, _, err := svc.Register(ctx, sameUsername); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}

	distinct := aliceInput()
	distinct.Username = "bob"
	distinct.Email = "bob@example.com"
	if _, _, err := svc.Register(ctx, distinct); err != nil {
		t.Fatalf("distinct Register returned error: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newTestAuthService(newMemStore(), newMemRevoker())

	cases := map[string]func(*ports.RegisterInput){
		"missing username": func(in *ports.RegisterInput) { in.Username = "  " },
		"missing email":    func(in *ports.RegisterInput) { in.Email = "" },
		"missing password": func(in *ports.RegisterInput) { in.Password = "" },
		"missing name":     func(in *ports.RegisterInput) { in.Name = "" },
		"zero age":         func(in *ports.RegisterInput) { in.Age = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := aliceInput()
			mutate(&in)
			if _, _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(store, newMemRevoker())
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	cred, user, err := svc.Login(ctx, "ALICE@example.com", "wonderland")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != registered.ID || cred.Token == "" {
		t.Fatalf("unexpected login result: %+v %+v", user, cred)
	}

	_, _, wrongPassword := svc.Login(ctx, "alice@example.com", "nope")
	_, _, unknownEmail := svc.Login(ctx, "nobody@example.com", "wonderland")
	for _, err := range []error{wrongPassword, unknownEmail} {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("login failures must be indistinguishable: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestAuthService_Verify_Rejects(t *testing.T) {
	store := newMemStore()
	svc := newTestAuthService(store, newMemRevoker())
	ctx := context.Background()

	_, valid, err := svc.Register(ctx, aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.tokens.issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}
	svc.tokens.now = time.Now

	other := NewAuthService(store.userRepo(), newMemRevoker(), AuthOptions{JWTSecret: "other-secret"}, zerolog.Nop())
	foreign, err := other.tokens.issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("issue returned error: %v", err)
	}

	parts := strings.Split(valid.Token, ".")
	foreignParts := strings.Split(foreign.Token, ".")
	spliced := parts[0] + "." + foreignParts[1] + "." + parts[2]

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"expired":      expired.Token,
		"wrong secret": foreign.Token,
		"tampered":     spliced,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(ctx, token); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthService_Logout_RevokesToken(t *testing.T) {
	revoker := newMemRevoker()
	svc := newTestAuthService(newMemStore(), revoker)
	ctx := context.Background()

	_, cred, err := svc.Register(ctx, aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	id, err := svc.Verify(ctx, cred.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if err := svc.Logout(ctx, *id); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := svc.Verify(ctx, cred.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestAuthService_Refresh_RetiresOldToken(t *testing.T) {
	svc := newTestAuthService(newMemStore(), newMemRevoker())
	ctx := context.Background()

	_, cred, err := svc.Register(ctx, aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	id, err := svc.Verify(ctx, cred.Token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	fresh, err := svc.Refresh(ctx, *id)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if fresh.Token == cred.Token {
		t.Fatalf("expected a new token")
	}
	if _, err := svc.Verify(ctx, cred.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected old token to be rejected, got %v", err)
	}
	refreshed, err := svc.Verify(ctx, fresh.Token)
	if err != nil {
		t.Fatalf("Verify of refreshed token returned error: %v", err)
	}
	if refreshed.UserID != id.UserID {
		t.Fatalf("refreshed token belongs to %q, want %q", refreshed.UserID, id.UserID)
	}
}

func TestAuthService_Verify_RevocationStoreDown(t *testing.T) {
	revoker := newMemRevoker()
	svc := newTestAuthService(newMemStore(), revoker)
	ctx := context.Background()

	_, cred, err := svc.Register(ctx, aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	revoker.err = errors.New("connection refused")
	if _, err := svc.Verify(ctx, cred.Token); err != nil {
		t.Fatalf("expected signature check alone to decide, got %v", err)
	}
}
