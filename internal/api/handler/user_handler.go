package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

// UserHandler handles profile, user page, follow and activity requests.
type UserHandler struct {
	users         ports.UserService
	relationships ports.RelationshipService
}

func NewUserHandler(users ports.UserService, relationships ports.RelationshipService) *UserHandler {
	return &UserHandler{users: users, relationships: relationships}
}

// Profile handles GET /api/profile.
//
// @Summary      Current user's profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.users.Profile(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{
		User:  toUserResponse(view.User),
		Posts: toPostsResponse(view.Posts),
	})
}

// Get handles GET /api/users/:id.
//
// @Summary      Another user's page
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userPageResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	view, err := h.users.GetUser(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	resp := toUserPageResponse(view)
	// Email is only shown to its owner.
	if view.User.ID != id.UserID {
		resp.User.Email = ""
	}
	return c.JSON(http.StatusOK, resp)
}

// ToggleFollow handles POST /api/toggle-follow/:id.
//
// @Summary      Follow or unfollow a user
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "Target user id"
// @Success      200  {object}  followResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /api/toggle-follow/{id} [post]
func (h *UserHandler) ToggleFollow(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	res, err := h.relationships.ToggleFollow(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, followResponse{IsFollowing: res.IsFollowing, FollowerCount: res.FollowerCount})
}

// Activity handles GET /api/activity.
//
// @Summary      Recent activity of the current user
// @Tags         users
// @Produce      json
// @Param        limit  query     int  false  "Maximum entries (default 50, max 200)"
// @Success      200    {object}  activityResponse
// @Router       /api/activity [get]
func (h *UserHandler) Activity(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var q activityQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	items, err := h.users.Activity(c.Request().Context(), id.UserID, q.Limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Activity{}
	}
	return c.JSON(http.StatusOK, activityResponse{Items: items})
}
