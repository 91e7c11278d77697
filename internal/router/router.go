package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anonto42/nano-feed/backend/internal/assets"
	"github.com/anonto42/nano-feed/backend/internal/handlers"
	"github.com/anonto42/nano-feed/backend/internal/middleware"
	"github.com/anonto42/nano-feed/backend/internal/realtime"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/services"
	"github.com/anonto42/nano-feed/backend/pkg/config"
	"github.com/anonto42/nano-feed/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Dependencies are the long-lived components the routes are built from.
type Dependencies struct {
	Config   *config.Config
	Store    repositories.Store
	Assets   assets.Store
	Hub      *realtime.Hub
	Firebase middleware.TokenVerifier // nil when firebase is not configured
	Log      zerolog.Logger
}

// SetupRoutes migrates the record store, then configures all application
// routes and injects dependencies.
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Dependencies) error {
	cfg, log := deps.Config, deps.Log

	if err := deps.Store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate record store: %w", err)
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("Record store migrations completed.")

	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorResponder(log)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Hello, World!"})
	})

	// --- Services ---
	postService := services.NewPostService(deps.Store, deps.Assets, deps.Hub, log, cfg.PostsPerPage)
	statusService := services.NewStatusService(deps.Store.Users())

	// --- Unprotected routes ---
	handlers.NewImageHandler(deps.Assets).RegisterImageRoutes(e)

	authGroup := e.Group("/auth")
	authHandler := handlers.NewAuthHandler(deps.Store.Users(), deps.Firebase, cfg.JWTSecret, cfg.TokenTTL)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Info().Msg("Auth routes configured.")

	eventsHandler := handlers.NewEventsHandler(deps.Hub, log)
	e.GET("/feed/events", eventsHandler.Stream)

	// --- Protected routes ---
	feed := e.Group("/feed")
	switch {
	case cfg.AuthProvider == "firebase" && deps.Firebase != nil:
		feed.Use(middleware.FirebaseAuthMiddleware(deps.Firebase, deps.Store.Users()))
	case cfg.AuthProvider == "firebase":
		return fmt.Errorf("auth provider firebase requires firebase credentials")
	default:
		feed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}
	log.Info().Str("provider", cfg.AuthProvider).Msg("Authentication middleware applied to /feed group.")

	feedHandler := handlers.NewFeedHandler(postService, statusService)
	feedHandler.RegisterFeedRoutes(feed)
	log.Info().Int64("page_size", postService.PageSize()).Msg("Feed routes configured.")

	return nil
}
