package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/miniblog/social-api/internal/api/middleware"
	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

// ctxIdentity extracts the identity injected by the Auth middleware.
// Its absence means the route was mounted without the gate.
func ctxIdentity(c echo.Context) (*ports.Identity, error) {
	id, ok := middleware.Identity(c)
	if !ok || id.UserID == "" {
		return nil, fmt.Errorf("%w: missing identity", domain.ErrUnauthenticated)
	}
	return id, nil
}

// bindAndValidate decodes the request into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}
