package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/miniblog/social-api/internal/core/ports"
)

// PostHandler handles HTTP requests for posts, the feed and likes.
type PostHandler struct {
	posts         ports.PostService
	relationships ports.RelationshipService
}

func NewPostHandler(posts ports.PostService, relationships ports.RelationshipService) *PostHandler {
	return &PostHandler{posts: posts, relationships: relationships}
}

// Create handles POST /api/posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      postRequest  true  "Post content"
// @Success      201   {object}  postResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), id.UserID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPostResponse(post))
}

// Get handles GET /api/posts/:id.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  postResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.posts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Update handles PUT /api/posts/:id.
//
// @Summary      Edit a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string       true  "Post id"
// @Param        body  body      postRequest  true  "New content"
// @Success      200   {object}  postResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/posts/{id} [put]
func (h *PostHandler) Update(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	var req postRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), id.UserID, c.Param("id"), req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPostResponse(post))
}

// Delete handles DELETE /api/posts/:id.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "post deleted"})
}

// Feed handles GET /api/posts.
//
// @Summary      List the public feed
// @Tags         posts
// @Produce      json
// @Param        search  query     string  false  "Matches author name or content"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200     {object}  feedResponse
// @Failure      400     {object}  errorResponse
// @Router       /api/posts [get]
func (h *PostHandler) Feed(c echo.Context) error {
	var q feedQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	res, err := h.posts.Feed(c.Request().Context(), ports.FeedInput{
		Search: q.Search,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(res))
}

// ToggleLike handles POST /api/posts/:id/toggle-like.
//
// @Summary      Like or unlike a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post id"
// @Success      200  {object}  likeResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/posts/{id}/toggle-like [post]
func (h *PostHandler) ToggleLike(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	res, err := h.relationships.ToggleLike(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, likeResponse{Liked: res.Liked, LikeCount: res.LikeCount})
}
