// Package server wires the HTTP API: routing, middleware and handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ideanest/internal/cache"
	"ideanest/internal/config"
	"ideanest/internal/database"
	"ideanest/internal/middleware"
	"ideanest/internal/models"
	"ideanest/internal/repository"
	"ideanest/internal/service"
	"ideanest/internal/token"
	"ideanest/internal/trending"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Cache
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *token.Service
	scorer         *trending.Scorer

	userRepo repository.UserRepository
	ideaRepo repository.IdeaRepository
	likeRepo repository.LikeRepository

	authService  *service.AuthService
	ideaService  *service.IdeaService
	likeService  *service.LikeService
	userService  *service.UserService
	adminService *service.AdminService
}

// NewServer creates a server instance, connecting the database and Redis.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	c := cache.New(cfg.RedisURL, middleware.Logger)
	return NewServerWithDeps(cfg, db, c)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Used by tests and by bootstrap layers that establish DB/Redis themselves.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, c *cache.Cache) (*Server, error) {
	userRepo := repository.NewUserRepository(db, c)
	ideaRepo := repository.NewIdeaRepository(db, c)
	likeRepo := repository.NewLikeRepository(db, c)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	tokens := token.NewService(token.Options{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
		Issuer:        cfg.JWTIssuer,
		Audience:      cfg.JWTAudience,
	}, refreshRepo)

	prom := middleware.InitMetrics("ideanest-api")

	server := &Server{
		config:         cfg,
		db:             db,
		cache:          c,
		promMiddleware: prom,
		tokens:         tokens,
		scorer:         trending.NewScorer(db, trending.DefaultOptions, middleware.Logger),
		userRepo:       userRepo,
		ideaRepo:       ideaRepo,
		likeRepo:       likeRepo,
	}

	server.userService = service.NewUserService(userRepo, ideaRepo, tokens, c)
	server.authService = service.NewAuthService(userRepo, tokens)
	server.ideaService = service.NewIdeaService(ideaRepo, c, server.userService.CanModerate)
	server.likeService = service.NewLikeService(likeRepo, c)
	server.adminService = service.NewAdminService(userRepo, ideaRepo, likeRepo, tokens, c)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and user ID into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Accept-Language, Accept-Encoding",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		// Never rate-limit preflight requests; they are handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	rdb := s.cache.Client()

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		rdb, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		rdb, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", middleware.AuthRequired(s.tokens), s.Logout)
	auth.Post("/logout-all", middleware.AuthRequired(s.tokens), s.LogoutAll)

	// Idea routes. Anonymous visitors participate via fingerprints, so most
	// routes take OptionalAuth rather than AuthRequired.
	ideas := api.Group("/ideas", middleware.OptionalAuth(s.tokens))
	ideas.Get("/", s.GetIdeas)
	ideas.Get("/trending", s.GetTrendingIdeas)
	ideas.Get("/top", s.GetTopIdeas)
	ideas.Post("/", middleware.RateLimit(
		rdb, 5, 5*time.Minute, "create_idea"), s.CreateIdea)
	// Specific /:id/:resource routes BEFORE generic /:id routes
	ideas.Post("/:id/like", middleware.RateLimit(
		rdb, 30, time.Minute, "toggle_like"), s.ToggleLike)
	ideas.Get("/:id/like", s.GetLikeStatus)
	ideas.Get("/:id/likes", s.GetLikeCount)
	ideas.Get("/:id", s.GetIdea)
	ideas.Put("/:id", middleware.AuthRequired(s.tokens), s.UpdateIdea)
	ideas.Delete("/:id", middleware.AuthRequired(s.tokens), s.DeleteIdea)

	// User routes. /me routes are registered before the generic /:id routes.
	users := api.Group("/users")
	me := users.Group("/me", middleware.AuthRequired(s.tokens))
	me.Get("/", s.GetMyProfile)
	me.Put("/", s.UpdateMyProfile)
	me.Delete("/", s.DeleteMyAccount)
	me.Put("/password", s.ChangeMyPassword)
	me.Get("/stats", s.GetMyStats)
	me.Get("/likes", s.GetMyLikedIdeas)
	users.Get("/search", s.SearchUsers)
	users.Get("/:id/ideas", middleware.OptionalAuth(s.tokens), s.GetUserIdeas)
	users.Get("/:id", s.GetUserProfile)

	// Moderation routes (admins and moderators)
	moderation := api.Group("/moderation",
		middleware.AuthRequired(s.tokens), middleware.ModeratorRequired())
	moderation.Get("/ideas", s.GetModerationQueue)

	// Admin routes
	admin := api.Group("/admin",
		middleware.AuthRequired(s.tokens), middleware.AdminRequired())
	admin.Get("/stats", s.GetPlatformStats)
	admin.Get("/analytics", s.GetPlatformAnalytics)
	admin.Get("/users", s.AdminListUsers)
	admin.Put("/users/:id/role", s.AdminUpdateUserRole)
	admin.Post("/users/:id/toggle-status", s.AdminToggleUserStatus)
	admin.Get("/users/:id", s.AdminGetUser)
	admin.Delete("/users/:id", s.AdminDeleteUser)
	admin.Post("/maintenance/cleanup-likes", s.AdminCleanupLikes)
	admin.Post("/maintenance/recompute-trending", s.AdminRecomputeTrending)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. The database is required;
// Redis is reported but does not fail readiness because the cache degrades to
// a no-op when unavailable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if rdb := s.cache.Client(); rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the Fiber app and listens on the configured port.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "IdeaNest API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return models.RespondWithError(c, err)
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the server and closes its connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server",
				slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB",
				slog.String("error", cerr.Error()))
		}
	}

	if err := s.cache.Close(); err != nil {
		middleware.Logger.Error("error closing redis",
			slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
