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

	"github.com/anonto42/streamify/backend/internal/notifications"
	"github.com/anonto42/streamify/backend/internal/queue"
	"github.com/anonto42/streamify/backend/internal/realtime"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/anonto42/streamify/backend/internal/worker"
	"github.com/anonto42/streamify/backend/pkg/config"
	"github.com/hibiken/asynq"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()
	config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if !cfg.QueueEnabled() {
		slog.Error("REDIS_URL is required to run the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitMongo(cfg)
	if err != nil {
		slog.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	defer db.CloseDB()

	rdb, err := config.InitRedis(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	redisOpt, err := queue.RedisOpt(cfg.RedisURL)
	if err != nil {
		slog.Error("Invalid REDIS_URL", "error", err)
		os.Exit(1)
	}

	userRepo := repositories.NewMongoUserRepository(db.MongoDB)
	videoRepo := repositories.NewMongoVideoRepository(db.MongoDB)
	subscriptionRepo := repositories.NewMongoSubscriptionRepository(db.MongoDB)
	notificationRepo := repositories.NewMongoNotificationRepository(db.MongoDB)

	notificationService := notifications.NewService(notificationRepo, userRepo, realtime.NewRedisBroadcaster(rdb))

	w := worker.NewWorker(redisOpt, worker.Config{Concurrency: cfg.WorkerConcurrency},
		worker.NewFanoutHandler(userRepo, videoRepo, subscriptionRepo, notificationService),
		worker.NewEventHandler(notificationService.HandleEvent),
	)
	defer w.Close()

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	go queue.NewJanitor(inspector, clock.WallClock).Run(ctx)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving worker metrics", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()

	if err := w.Start(ctx); err != nil {
		slog.Error("Worker failed", "error", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", "error", err)
	}
}
