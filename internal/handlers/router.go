package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"vidtube/internal/middleware"
	"vidtube/internal/repositories"
	"vidtube/internal/services"
	"vidtube/pkg/blobstore"
)

// MaxUploadSize bounds the request body, which carries video files.
const MaxUploadSize = 512 << 20

// AppConfig holds everything NewApp wires together. A nil Events drops
// domain events and a nil Limiter falls back to an in-process one.
type AppConfig struct {
	Store   *repositories.Store
	Blobs   blobstore.Store
	Events  services.EventPublisher
	Tokens  services.TokenConfig
	Limiter middleware.Limiter

	CORSOrigin string
	RequestLog bool
}

// NewApp builds the Fiber app with every route mounted under /api/v1.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    MaxUploadSize,
	})

	app.Use(recover.New())
	if cfg.RequestLog {
		app.Use(fiberlogger.New())
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowCredentials: origin != "*",
	}))

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = middleware.NewLocalLimiter(20, time.Minute)
	}

	store := cfg.Store
	authService := services.NewAuthService(store.Users, cfg.Blobs, cfg.Events, cfg.Tokens)
	guards := Guards{
		Required:  middleware.AuthRequired(authService),
		Optional:  middleware.OptionalAuth(authService),
		RateLimit: middleware.RateLimit(limiter, "auth"),
	}

	api := app.Group("/api/v1")
	api.Get("/healthcheck", HandleHealthcheck)

	NewAuthHandler(authService, cfg.Tokens).RegisterRoutes(api, guards)
	NewUserHandler(services.NewUserService(store.Users, cfg.Blobs)).RegisterRoutes(api, guards)
	NewVideoHandler(services.NewVideoService(store.Videos, store.Users, cfg.Blobs, cfg.Events)).RegisterRoutes(api, guards)
	NewCommentHandler(services.NewCommentService(store.Comments, store.Videos)).RegisterRoutes(api, guards)
	NewTweetHandler(services.NewTweetService(store.Tweets, store.Users)).RegisterRoutes(api, guards)
	NewLikeHandler(services.NewLikeService(store.Likes, store.Videos, store.Comments, store.Tweets)).RegisterRoutes(api, guards)
	NewPlaylistHandler(services.NewPlaylistService(store.Playlists, store.Videos)).RegisterRoutes(api, guards)
	NewSubscriptionHandler(services.NewSubscriptionService(store.Subscriptions, store.Users)).RegisterRoutes(api, guards)
	NewDashboardHandler(services.NewDashboardService(store.Videos)).RegisterRoutes(api, guards)

	return app
}
