package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miniblog/social-api/internal/api/cookie"
	"github.com/miniblog/social-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	jar         cookie.Jar
}

func NewAuthHandler(authService ports.AuthService, jar cookie.Jar) *AuthHandler {
	return &AuthHandler{authService: authService, jar: jar}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, cred, err := h.authService.Register(c.Request().Context(), toRegisterInput(req))
	if err != nil {
		return err
	}

	h.jar.Set(c, cred.Token, cred.ExpiresAt)
	return c.JSON(http.StatusCreated, authResponse{User: toUserResponse(user), Message: "registration successful"})
}

// Login authenticates a user and sets the credential cookie.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	cred, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.jar.Set(c, cred.Token, cred.ExpiresAt)
	return c.JSON(http.StatusOK, authResponse{User: toUserResponse(user), Message: "login successful"})
}

// Logout revokes the presented credential, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if token := h.jar.Read(c); token != "" {
		if id, err := h.authService.Verify(ctx, token); err == nil {
			if err := h.authService.Logout(ctx, *id); err != nil {
				return err
			}
		}
	}

	h.jar.Clear(c)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Refresh replaces the current credential with a new one.
//
// @Summary      Refresh the session credential
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	cred, err := h.authService.Refresh(c.Request().Context(), *id)
	if err != nil {
		return err
	}

	h.jar.Set(c, cred.Token, cred.ExpiresAt)
	return c.JSON(http.StatusOK, messageResponse{Message: "token refreshed"})
}
