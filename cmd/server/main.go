package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/middleware"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/anonto42/streamify/backend/internal/realtime"
	"github.com/anonto42/streamify/backend/internal/router"
	"github.com/anonto42/streamify/backend/internal/validators"
	"github.com/anonto42/streamify/backend/pkg/config"
	"github.com/anonto42/streamify/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		slog.Error("Failed to initialize databases", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	rdb, err := config.InitRedis(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Initialize Firebase
	var verifier middleware.IDTokenVerifier
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		slog.Error("Failed to initialize Firebase", "error", err)
		os.Exit(1)
	}
	if firebaseApp != nil {
		verifier = firebaseApp.AuthClient
	}

	queueClient, err := queue.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to initialize task queue", "error", err)
		os.Exit(1)
	}
	defer queueClient.Close()

	hub := realtime.NewHub()
	defer hub.Close()

	var (
		publisher   events.Publisher
		broadcaster realtime.Broadcaster = hub
	)
	if rdb != nil {
		// Worker and server both publish to redis; the relay feeds this process's clients.
		publisher = queueClient
		broadcaster = realtime.NewRedisBroadcaster(rdb)
		go func() {
			if err := realtime.NewRelay(rdb, hub).Run(ctx); err != nil {
				slog.Error("Realtime relay stopped", "error", err)
			}
		}()
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.New()

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	cleanup, err := router.SetupRoutes(e, router.Deps{
		Config:       cfg,
		DB:           db,
		Redis:        rdb,
		FirebaseAuth: verifier,
		Fanout:       queueClient,
		Publisher:    publisher,
		Broadcaster:  broadcaster,
		Hub:          hub,
	})
	if err != nil {
		slog.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Start server
	go func() {
		slog.Info("Starting API server", "port", cfg.Port, "env", cfg.Env)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}
