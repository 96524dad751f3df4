// @title        miniblog social API
// @version      1.0
// @description  Accounts, posts, likes and follows for a small social blog.
// @BasePath     /
//
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        token
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/miniblog/social-api/internal/api"
	"github.com/miniblog/social-api/internal/api/cookie"
	"github.com/miniblog/social-api/internal/api/handler"
	"github.com/miniblog/social-api/internal/core/service"
	"github.com/miniblog/social-api/internal/infrastructure/config"
	mongodb "github.com/miniblog/social-api/internal/infrastructure/db/mongo"
	redisdb "github.com/miniblog/social-api/internal/infrastructure/db/redis"
	"github.com/miniblog/social-api/internal/infrastructure/queue"
	"github.com/miniblog/social-api/internal/infrastructure/scheduler"
	"github.com/miniblog/social-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{Level: "error"})
		fallback.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "miniblog",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "miniblog",
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	userRepo := mongodb.NewUserRepository(db)
	postRepo := mongodb.NewPostRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	if err := mongodb.EnsureIndexes(ctx, userRepo, postRepo, activityRepo); err != nil {
		return err
	}

	// --- Background workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	dispatcher := queue.NewDispatcher(cfg.Jobs.ActivityWorkers, activityRepo, logger.Component("activity"))
	dispatcher.Start(workerCtx)

	// --- Services ---
	authService := service.NewAuthService(userRepo, redisdb.NewRevocationStore(rdb), service.AuthOptions{
		JWTSecret:  cfg.Auth.JWTSecret,
		TokenTTL:   cfg.Auth.TokenTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, logger.Component("auth"))
	pairLock := redisdb.NewPairLock(rdb, logger.Component("lock"))
	relService := service.NewRelationshipService(userRepo, postRepo, pairLock, dispatcher, logger.Component("relationships"))
	postService := service.NewPostService(postRepo, userRepo, dispatcher, logger.Component("posts"))
	userService := service.NewUserService(userRepo, postRepo, activityRepo)
	reconciler := service.NewReconcileService(userRepo, postRepo, pairLock, logger.Component("reconcile"))

	sched := scheduler.New(logger.Component("scheduler"), cfg.Jobs.ReconcileTimeout)
	if err := sched.Add("reconcile-relationships", cfg.Jobs.ReconcileSchedule, func(ctx context.Context) error {
		_, err := reconciler.Run(ctx)
		return err
	}); err != nil {
		return err
	}
	sched.Start()

	// --- HTTP ---
	e, err := api.NewRouter(api.Services{
		Auth:          authService,
		Posts:         postService,
		Users:         userService,
		Relationships: relService,
	}, api.Options{
		Cookie:       cookie.NewJar(cfg.Auth.CookieName, cfg.Auth.CookieSecure),
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		RateLimitRPS: cfg.HTTP.RateLimitRPS,
		Readiness: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: logger.Component("http"),
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := net.JoinHostPort("", cfg.Port)
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(sctx)

		sched.Stop()
		cancelWorkers()
		dispatcher.Wait()
		return err
	})

	return g.Wait()
}
