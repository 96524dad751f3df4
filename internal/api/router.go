package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/miniblog/social-api/docs"
	"github.com/miniblog/social-api/internal/api/cookie"
	"github.com/miniblog/social-api/internal/api/handler"
	"github.com/miniblog/social-api/internal/api/middleware"
	"github.com/miniblog/social-api/internal/api/pages"
	"github.com/miniblog/social-api/internal/core/ports"
)

// Services are the use cases both personalities drive.
type Services struct {
	Auth          ports.AuthService
	Posts         ports.PostService
	Users         ports.UserService
	Relationships ports.RelationshipService
}

// Options configures the HTTP surface.
type Options struct {
	Cookie       cookie.Jar
	CORSOrigins  []string
	RateLimitRPS float64
	Readiness    map[string]handler.DependencyCheck
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) (*echo.Echo, error) {
	renderer, err := pages.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = renderer
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(opts.Log))
	e.Use(echoprometheus.NewMiddleware("miniblog"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	if opts.RateLimitRPS > 0 {
		e.Use(echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimitRPS))))
	}

	// --- Operational (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(opts.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- JSON API ---
	authHandler := handler.NewAuthHandler(svc.Auth, opts.Cookie)
	postHandler := handler.NewPostHandler(svc.Posts, svc.Relationships)
	userHandler := handler.NewUserHandler(svc.Users, svc.Relationships)

	apiGroup := e.Group("/api")
	apiGroup.POST("/register", authHandler.Register)
	apiGroup.POST("/login", authHandler.Login)
	apiGroup.POST("/logout", authHandler.Logout)
	apiGroup.GET("/posts", postHandler.Feed)

	apiGate := middleware.Auth(svc.Auth, opts.Cookie, middleware.API)
	apiGroup.POST("/refresh", authHandler.Refresh, apiGate)
	apiGroup.GET("/profile", userHandler.Profile, apiGate)
	apiGroup.POST("/posts", postHandler.Create, apiGate)
	apiGroup.GET("/posts/:id", postHandler.Get, apiGate)
	apiGroup.PUT("/posts/:id", postHandler.Update, apiGate)
	apiGroup.DELETE("/posts/:id", postHandler.Delete, apiGate)
	apiGroup.POST("/posts/:id/toggle-like", postHandler.ToggleLike, apiGate)
	apiGroup.POST("/toggle-follow/:id", userHandler.ToggleFollow, apiGate)
	apiGroup.GET("/users/:id", userHandler.Get, apiGate)
	apiGroup.GET("/activity", userHandler.Activity, apiGate)

	// --- Rendered pages ---
	pageHandler := pages.NewHandler(svc.Auth, svc.Posts, svc.Users, svc.Relationships, opts.Cookie, opts.Log)

	e.GET("/", pageHandler.Root)
	e.GET("/login", pageHandler.LoginForm)
	e.POST("/login", pageHandler.Login)
	e.GET("/register", pageHandler.RegisterForm)
	e.POST("/register", pageHandler.Register)
	e.GET("/logout", pageHandler.Logout)

	pageGate := middleware.Auth(svc.Auth, opts.Cookie, middleware.Render)
	e.GET("/profile", pageHandler.Profile, pageGate)
	e.POST("/post", pageHandler.CreatePost, pageGate)
	e.POST("/like/:id", pageHandler.Like, pageGate)
	e.GET("/edit/:id", pageHandler.EditForm, pageGate)
	e.POST("/update/:id", pageHandler.Update, pageGate)
	e.POST("/delete/:id", pageHandler.Delete, pageGate)
	e.GET("/feed", pageHandler.Feed, pageGate)
	e.GET("/follow-page/:id", pageHandler.FollowPage, pageGate)
	e.POST("/toggle-follow/:id", pageHandler.ToggleFollow, pageGate)

	return e, nil
}

// requestLogger writes one zerolog event per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
