// Package pages is the server-rendered personality of the blog. It drives the
// same services as the JSON API and answers with HTML pages and redirects.
package pages

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/miniblog/social-api/internal/api/cookie"
	"github.com/miniblog/social-api/internal/api/handler"
	"github.com/miniblog/social-api/internal/api/middleware"
	"github.com/miniblog/social-api/internal/core/domain"
	"github.com/miniblog/social-api/internal/core/ports"
)

const profilePath = "/profile"

type page struct {
	Title         string
	Error         string
	Authenticated bool
	ActorID       string
}

type loginPage struct {
	page
	Email string
}

type registerPage struct {
	page
	Username string
	Email    string
	Name     string
	Age      int
}

type profilePage struct {
	page
	User      *domain.User
	Posts     []*domain.Post
	MaxLength int
}

type editPage struct {
	page
	Post      *domain.Post
	MaxLength int
}

type feedPage struct {
	page
	Feed     *ports.FeedResult
	Search   string
	PrevPage int
	NextPage int
}

type userPage struct {
	page
	View *ports.UserView
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type registerForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	Name     string `form:"name"`
	Age      int    `form:"age"`
}

type postForm struct {
	Content string `form:"content"`
}

type feedQuery struct {
	Search string `query:"search"`
	Page   int    `query:"page"`
}

// Handler serves the HTML pages.
type Handler struct {
	auth          ports.AuthService
	posts         ports.PostService
	users         ports.UserService
	relationships ports.RelationshipService
	jar           cookie.Jar
	log           zerolog.Logger
}

func NewHandler(
	auth ports.AuthService,
	posts ports.PostService,
	users ports.UserService,
	relationships ports.RelationshipService,
	jar cookie.Jar,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		posts:         posts,
		users:         users,
		relationships: relationships,
		jar:           jar,
		log:           log,
	}
}

func (h *Handler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", loginPage{page: page{Title: "Log in"}})
}

func (h *Handler) Login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, "login", loginPage{page: page{Title: "Log in", Error: "invalid form"}})
	}

	cred, _, err := h.auth.Login(c.Request().Context(), form.Email, form.Password)
	if err != nil {
		code, msg := h.classify(c, err)
		return c.Render(code, "login", loginPage{page: page{Title: "Log in", Error: msg}, Email: form.Email})
	}

	h.jar.Set(c, cred.Token, cred.ExpiresAt)
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register", registerPage{page: page{Title: "Register"}})
}

func (h *Handler) Register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return c.Render(http.StatusBadRequest, "register", registerPage{page: page{Title: "Register", Error: "invalid form"}})
	}

	_, cred, err := h.auth.Register(c.Request().Context(), ports.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		Name:     form.Name,
		Age:      form.Age,
	})
	if err != nil {
		code, msg := h.classify(c, err)
		return c.Render(code, "register", registerPage{
			page:     page{Title: "Register", Error: msg},
			Username: form.Username,
			Email:    form.Email,
			Name:     form.Name,
			Age:      form.Age,
		})
	}

	h.jar.Set(c, cred.Token, cred.ExpiresAt)
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if token := h.jar.Read(c); token != "" {
		if id, err := h.auth.Verify(ctx, token); err == nil {
			_ = h.auth.Logout(ctx, *id)
		}
	}
	h.jar.Clear(c)
	return toLogin(c)
}

func (h *Handler) Profile(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}

	view, err := h.users.Profile(c.Request().Context(), id.UserID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "profile", profilePage{
		page:      h.authed(id, view.User.Name),
		User:      view.User,
		Posts:     view.Posts,
		MaxLength: domain.MaxPostLength,
	})
}

func (h *Handler) CreatePost(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	var form postForm
	if err := c.Bind(&form); err != nil {
		return h.fail(c, domain.ErrValidation)
	}

	if _, err := h.posts.Create(c.Request().Context(), id.UserID, form.Content); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) Like(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	if _, err := h.relationships.ToggleLike(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) EditForm(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}

	post, err := h.posts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if post.UserID != id.UserID {
		return h.fail(c, domain.ErrForbidden)
	}
	return c.Render(http.StatusOK, "edit", editPage{
		page:      h.authed(id, "Edit post"),
		Post:      post,
		MaxLength: domain.MaxPostLength,
	})
}

func (h *Handler) Update(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	var form postForm
	if err := c.Bind(&form); err != nil {
		return h.fail(c, domain.ErrValidation)
	}

	if _, err := h.posts.Update(c.Request().Context(), id.UserID, c.Param("id"), form.Content); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) Delete(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	if err := h.posts.Delete(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, profilePath)
}

func (h *Handler) Feed(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	var q feedQuery
	if err := c.Bind(&q); err != nil {
		q = feedQuery{}
	}

	res, err := h.posts.Feed(c.Request().Context(), ports.FeedInput{Search: q.Search, Page: q.Page})
	if err != nil {
		return h.fail(c, err)
	}

	data := feedPage{page: h.authed(id, "Feed"), Feed: res, Search: strings.TrimSpace(q.Search)}
	if res.Page > 1 {
		data.PrevPage = res.Page - 1
	}
	if res.Page < res.TotalPages {
		data.NextPage = res.Page + 1
	}
	return c.Render(http.StatusOK, "feed", data)
}

func (h *Handler) FollowPage(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}

	view, err := h.users.GetUser(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.Render(http.StatusOK, "user", userPage{page: h.authed(id, view.User.Name), View: view})
}

func (h *Handler) ToggleFollow(c echo.Context) error {
	id, ok := middleware.Identity(c)
	if !ok {
		return toLogin(c)
	}
	target := c.Param("id")
	if _, err := h.relationships.ToggleFollow(c.Request().Context(), id.UserID, target); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusFound, "/follow-page/"+target)
}

func (h *Handler) authed(id *ports.Identity, title string) page {
	return page{Title: title, Authenticated: true, ActorID: id.UserID}
}

// fail renders the error page with the status the JSON API would have used.
func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrUnauthenticated) {
		h.jar.Clear(c)
		return toLogin(c)
	}
	code, msg := h.classify(c, err)
	_, authenticated := middleware.Identity(c)
	return c.Render(code, "error", page{Title: "Something went wrong", Error: msg, Authenticated: authenticated})
}

func (h *Handler) classify(c echo.Context, err error) (int, string) {
	if code := handler.StatusFor(err); code != 0 {
		return code, err.Error()
	}
	h.log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled page error")
	return http.StatusInternalServerError, "internal server error"
}

func toLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, middleware.LoginPath)
}
