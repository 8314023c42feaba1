// Package server contains the HTTP handlers for the feed engine API.
package server

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"famefeed/internal/bootstrap"
	"famefeed/internal/cache"
	"famefeed/internal/config"
	"famefeed/internal/featureflags"
	"famefeed/internal/middleware"
	"famefeed/internal/models"
	"famefeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "famefeed-api"

// Server holds all dependencies and provides handlers
type Server struct {
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	app          *fiber.App
	services     *service.Services
	featureFlags *featureflags.Manager
	runtime      *bootstrap.Runtime
}

// NewServer connects to the database and Redis and wires the services.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedCatalog: true})
	if err != nil {
		return nil, err
	}
	return NewServerWithRuntime(rt), nil
}

// NewServerWithRuntime creates a Server over an already-initialized runtime.
// Tests use it with SQLite and miniredis.
func NewServerWithRuntime(rt *bootstrap.Runtime) *Server {
	return &Server{
		config:       rt.Config,
		db:           rt.DB,
		redis:        rt.Redis,
		services:     rt.Services,
		featureFlags: rt.Flags,
		runtime:      rt,
	}
}

// NewApp builds a Fiber app with the error handler, middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "FameFeed API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
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

	// Prometheus metrics and the /metrics route
	middleware.InitMetrics(app, serviceName)

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
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

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	api := app.Group("/api", s.AuthRequired())

	api.Get("/feature-flags", s.GetFeatureFlags)
	api.Get("/timeline", s.GetTimeline)
	api.Get("/bullshitters", s.GetBullshitters)

	posts := api.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, s.postsPerMinute(), time.Minute, "submit_post"), s.SubmitPost)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Post("/:id/ratings", s.RatePost)

	// /me routes before the generic /:id ones
	users := api.Group("/users")
	users.Get("/me/follows", s.GetMyFollows)
	users.Get("/me/followers", s.GetMyFollowers)
	users.Get("/me/similar", s.GetSimilarUsers)
	users.Get("/me/fame", s.GetMyFame)
	users.Get("/:id/fame", s.GetUserFame)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)

	communities := api.Group("/communities")
	communities.Get("/", s.GetCommunities)
	communities.Post("/:id/membership", s.JoinCommunity)
	communities.Delete("/:id/membership", s.LeaveCommunity)
}

func (s *Server) postsPerMinute() int {
	if s.config.RateLimitPostsPerMin > 0 {
		return s.config.RateLimitPostsPerMin
	}
	return 10
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: the
// caches fall back to process memory, so only the database gates readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
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

// AuthRequired returns the authentication middleware. Tokens are issued by
// the surrounding platform; sub carries the numeric user ID.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := strings.CutPrefix(c.Get("Authorization"), "Bearer ")
		if !ok || tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		}, jwt.WithIssuer(s.config.JWTIssuer), jwt.WithAudience(s.config.JWTAudience))
		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		sub, err := token.Claims.GetSubject()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil || userID == 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		revoked, err := cache.IsRevoked(c.UserContext(), uint(userID))
		if err != nil {
			// the service layer still rejects banned actors
			middleware.Logger.WarnContext(c.UserContext(), "revocation check failed",
				slog.String("error", err.Error()))
		}
		if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Session has been revoked"))
		}

		c.Locals("userID", uint(userID))
		c.SetUserContext(middleware.WithUserID(c.UserContext(), uint(userID)))
		return c.Next()
	}
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	s.app = s.NewApp()
	slog.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			slog.Error("error shutting down HTTP server", slog.Any("error", err))
		}
	}
	if s.runtime != nil {
		s.runtime.Close()
	}
	slog.Info("server shutdown complete")
	return nil
}
