package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/assets"
	"github.com/anonto42/nano-feed/backend/internal/realtime"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/anonto42/nano-feed/backend/internal/router"
	"github.com/anonto42/nano-feed/backend/pkg/config"
	"github.com/anonto42/nano-feed/backend/pkg/firebase"
	"github.com/anonto42/nano-feed/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

// run owns every resource it opens, so its deferred cleanup always happens
// before main decides the exit code.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when run exits

	// Initialize Firebase when auth or image storage needs it
	var firebaseApp *firebase.App
	if cfg.FirebaseEnabled() {
		firebaseApp, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseBucket, log)
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
	}

	assetStore, err := newAssetStore(cfg, firebaseApp)
	if err != nil {
		return fmt.Errorf("initialize image storage: %w", err)
	}

	hub := realtime.NewHub(log)
	defer hub.Close()

	deps := router.Dependencies{
		Config: cfg,
		Store:  newRecordStore(cfg, db),
		Assets: assetStore,
		Hub:    hub,
		Log:    log,
	}
	if firebaseApp != nil {
		deps.Firebase = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup global middleware
	config.SetupMiddleware(e, log)

	// Setup routes and dependencies
	if err := router.SetupRoutes(ctx, e, deps); err != nil {
		return fmt.Errorf("set up routes: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down")

	// SSE streams never finish on their own; closing the hub ends them.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newRecordStore(cfg *config.Config, db *config.DB) repositories.Store {
	switch {
	case db.Postgres != nil:
		return repositories.NewPostgresStore(db.Postgres)
	case db.Mongo != nil:
		return repositories.NewMongoStore(db.Mongo, cfg.MongoDatabase, cfg.MongoTransactions)
	default:
		return repositories.NewMemoryStore()
	}
}

func newAssetStore(cfg *config.Config, app *firebase.App) (assets.Store, error) {
	if cfg.AssetDriver == "firebase" {
		if app == nil {
			return nil, errors.New("asset driver firebase requires firebase credentials")
		}
		return assets.NewBucketStore(app.Bucket), nil
	}
	return assets.NewDiskStore(cfg.AssetDir)
}
