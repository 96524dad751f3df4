package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miniblog/social-api/internal/api/cookie"
	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

// IdentityKey is the echo context key holding the *ports.Identity of the caller.
const IdentityKey = "identity"

// LoginPath is where the page personality sends unauthenticated visitors.
const LoginPath = "/login"

// Personality selects how the gate reports a missing or invalid credential.
type Personality int

const (
	// API fails the request with ErrUnauthenticated (401 JSON).
	API Personality = iota
	// Render redirects the browser to the login page.
	Render
)

// Auth validates the credential cookie and injects the caller identity into context.
// An invalid cookie is cleared before the request is rejected.
func Auth(verifier ports.TokenVerifier, jar cookie.Jar, p Personality) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := jar.Read(c)
			if token == "" {
				return reject(c, p, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated))
			}

			id, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				jar.Clear(c)
				return reject(c, p, err)
			}

			c.Set(IdentityKey, id)
			return next(c)
		}
	}
}

// Identity returns the caller identity set by Auth, if any.
func Identity(c echo.Context) (*ports.Identity, bool) {
	id, ok := c.Get(IdentityKey).(*ports.Identity)
	return id, ok && id != nil
}

func reject(c echo.Context, p Personality, err error) error {
	if p == Render {
		return c.Redirect(http.StatusFound, LoginPath)
	}
	return err
}
