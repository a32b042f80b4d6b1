package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anonto42/streamify/backend/internal/dashboard"
	"github.com/anonto42/streamify/backend/internal/events"
	"github.com/anonto42/streamify/backend/internal/handlers"
	"github.com/anonto42/streamify/backend/internal/middleware"
	"github.com/anonto42/streamify/backend/internal/notifications"
	"github.com/anonto42/streamify/backend/internal/realtime"
	"github.com/anonto42/streamify/backend/internal/repositories"
	"github.com/anonto42/streamify/backend/pkg/config"
	"github.com/juju/clock"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// localBusBuffer bounds domain events waiting for the in-process consumer
const localBusBuffer = 256

// Deps are the process-level resources the routes are built from
type Deps struct {
	Config *config.Config
	DB     *config.DB
	// Redis is nil when REDIS_URL is unset
	Redis *redis.Client
	// FirebaseAuth must be a nil interface when Firebase is not configured
	FirebaseAuth middleware.IDTokenVerifier
	Fanout       handlers.UploadFanout
	// Publisher carries domain events. When nil an in-process bus feeds the notification service.
	Publisher   events.Publisher
	Broadcaster realtime.Broadcaster
	Hub         *realtime.Hub
}

// SetupRoutes configures all application routes and injects dependencies.
// The returned func releases resources created here.
func SetupRoutes(e *echo.Echo, d Deps) (func(), error) {
	ctx := context.Background()
	cfg := d.Config
	mdb := d.DB.MongoDB

	if err := repositories.EnsureIndexes(ctx, mdb); err != nil {
		return nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}
	if err := repositories.MigrateActivities(d.DB.Postgres); err != nil {
		return nil, fmt.Errorf("migrate activities: %w", err)
	}
	slog.Info("Store schema ready")

	// --- Initialize Repositories ---
	userRepo := repositories.NewMongoUserRepository(mdb)
	videoRepo := repositories.NewMongoVideoRepository(mdb)
	tweetRepo := repositories.NewMongoTweetRepository(mdb)
	commentRepo := repositories.NewMongoCommentRepository(mdb)
	likeRepo := repositories.NewMongoLikeRepository(mdb)
	subscriptionRepo := repositories.NewMongoSubscriptionRepository(mdb)
	libraryRepo := repositories.NewMongoLibraryRepository(mdb)
	notificationRepo := repositories.NewMongoNotificationRepository(mdb)
	activityRepo := repositories.NewPostgresActivityRepository(d.DB.Postgres)

	// --- Services ---
	notificationService := notifications.NewService(notificationRepo, userRepo, d.Broadcaster)
	dashboardService := dashboard.NewService(dashboard.Deps{
		Users:         userRepo,
		Videos:        videoRepo,
		Tweets:        tweetRepo,
		Comments:      commentRepo,
		Likes:         likeRepo,
		Subscriptions: subscriptionRepo,
		Library:       libraryRepo,
		Activities:    activityRepo,
	}, cfg.DashboardCacheTTL, cfg.DashboardCacheMaxEntries, clock.WallClock)

	cleanup := func() {}
	publisher := d.Publisher
	if publisher == nil {
		bus := events.NewLocalBus(notificationService.HandleEvent, localBusBuffer)
		publisher = bus
		cleanup = bus.Close
		slog.Info("Domain events handled in-process")
	}

	// Health check - always accessible
	checks := map[string]handlers.Pinger{
		"mongo": func(ctx context.Context) error { return d.DB.Mongo.Ping(ctx, nil) },
		"postgres": func(ctx context.Context) error {
			sqlDB, err := d.DB.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	e.GET("/health", handlers.NewHealthHandler(checks).HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userRepo, d.FirebaseAuth, cfg.JWTSecret).RegisterAuthRoutes(authGroup)
	slog.Info("Auth routes configured", "firebase", d.FirebaseAuth != nil)

	// --- Websocket: the token travels in the query string ---
	ws := e.Group("/api/v1")
	handlers.NewRealtimeHandler(d.Hub).RegisterRealtimeRoutes(ws, middleware.JWTQueryAuthMiddleware(cfg.JWTSecret))

	// --- Protected routes (require JWT authentication) ---
	limiter, err := middleware.NewRateLimiter(cfg.RateLimit, d.Redis)
	if err != nil {
		cleanup()
		return nil, err
	}
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	api.Use(middleware.RateLimitMiddleware(limiter))

	handlers.NewUserHandler(userRepo).RegisterProfileRoutes(api)
	handlers.NewVideoHandler(videoRepo, libraryRepo, activityRepo, d.Fanout).RegisterVideoRoutes(api)
	handlers.NewTweetHandler(tweetRepo, activityRepo).RegisterTweetRoutes(api)
	handlers.NewCommentHandler(commentRepo, videoRepo, userRepo, activityRepo, publisher).RegisterCommentRoutes(api)
	handlers.NewLikeHandler(likeRepo, videoRepo, tweetRepo, commentRepo, userRepo, activityRepo, publisher).RegisterLikeRoutes(api)
	handlers.NewSubscriptionHandler(subscriptionRepo, userRepo, activityRepo, publisher).RegisterSubscriptionRoutes(api)
	handlers.NewLibraryHandler(libraryRepo, videoRepo, activityRepo).RegisterLibraryRoutes(api)
	handlers.NewNotificationHandler(notificationService).RegisterNotificationRoutes(api)
	handlers.NewDashboardHandler(dashboardService).RegisterDashboardRoutes(api)

	slog.Info("All routes configured")
	return cleanup, nil
}
