// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	"docfeed/internal/config"
	"docfeed/internal/featureflags"
	"docfeed/internal/middleware"
	"docfeed/internal/models"
	"docfeed/internal/notifications"
	"docfeed/internal/repository"
	"docfeed/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *repository.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager
	rateLimiter    *middleware.RateLimiter

	feedService     *service.FeedService
	postService     *service.PostService
	commentService  *service.CommentService
	userService     *service.UserService
	activityService *service.ActivityService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, broadcasting and rate limiting then degrade gracefully.
func NewServerWithDeps(cfg *config.Config, store *repository.Store, redisClient *redis.Client) *Server {
	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)

	authors := service.NewAuthorResolver(store.Users, redisClient)
	activity := service.NewActivityService(store.Activities, notifier, flags, cfg.ActivityLogLimit)

	s := &Server{
		config:          cfg,
		store:           store,
		redis:           redisClient,
		promMiddleware:  middleware.InitMetrics("docfeed-api"),
		notifier:        notifier,
		featureFlags:    flags,
		rateLimiter:     middleware.NewRateLimiter(redisClient, cfg.Env),
		activityService: activity,
		feedService:     service.NewFeedService(store.Posts, store.Comments, authors),
		postService:     service.NewPostService(store.Posts, store.Users, activity),
		commentService:  service.NewCommentService(store.Comments, store.Posts, authors, activity),
		userService:     service.NewUserService(store.Users, activity),
	}
	s.app = s.newApp()
	return s
}

// App exposes the configured fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "DocFeed API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so short-circuited responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	auth := app.Group("/auth")
	auth.Post("/signup", s.rateLimiter.Handler(middleware.SignupRule), s.Signup)
	auth.Post("/login", s.rateLimiter.Handler(middleware.LoginRule), s.Login)

	app.Get("/users/me", s.AuthRequired(), s.GetMyProfile)

	posts := app.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", s.AuthRequired(),
		s.rateLimiter.Handler(middleware.CreatePostRule), s.CreatePost)
	// Specific /:id/:resource routes before the generic /:id route.
	posts.Post("/:id/like", s.AuthRequired(), s.rateLimiter.Handler(middleware.ToggleLikeRule), s.LikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.AuthRequired(),
		s.rateLimiter.Handler(middleware.CreateCommentRule), s.CreateComment)
	posts.Get("/:id", s.GetPost)

	app.Get("/activities", s.GetActivities)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports store and Redis health. Redis is optional, so only
// a failing store makes the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storeStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"store":  storeStatus,
			"driver": s.store.Kind(),
			"redis":  redisStatus,
		},
		"time": time.Now(),
	})
}

// StartActivityLog subscribes a log sink to the activity broadcast until ctx is done.
// It is a no-op when the activity_broadcast flag is off or Redis is unavailable.
func (s *Server) StartActivityLog(ctx context.Context) error {
	if !s.featureFlags.EnabledGlobally(featureflags.ActivityBroadcast) {
		return nil
	}
	return s.notifier.SubscribeActivities(ctx, notifications.LogSink(middleware.Logger))
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("store", s.store.Kind()))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops accepting requests and drains in-flight ones.
// Storage and Redis are owned by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		return err
	}
	middleware.Logger.Info("Server shutdown complete")
	return nil
}
