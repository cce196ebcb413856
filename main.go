package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicehub/config"
	"servicehub/cron"
	"servicehub/database"
	"servicehub/database/repository"
	"servicehub/database/repository/memory"
	"servicehub/handlers"
	"servicehub/middleware"
	"servicehub/navigation"
	"servicehub/routes"
	"servicehub/services/booking"
	"servicehub/services/identity"
	"servicehub/services/notification"
	"servicehub/services/session"
	"servicehub/utils"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app, err := utils.FirebaseInit(ctx, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	provider, err := identity.NewFirebaseProvider(ctx, app, cfg.FirebaseWebAPIKey)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize identity provider: %v", err)
	}

	// Backends.
	var (
		repos       *repository.Repositories
		roleCache   identity.RoleCache
		mongoClient *mongo.Client
		redisClient *redis.Client
	)
	if config.UseMemoryStore() {
		logger.Warn("main: running on the in-memory store, data is lost on restart")
		repos = memory.NewStore().Repositories()
		roleCache = identity.NewExpiringMemoryRoleCache(clock.WallClock, cfg.SessionTTL)
	} else {
		mongoClient, err = database.InitDB(cfg.DatabaseURL)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		repos = repository.NewMongoRepositories(mongoClient.Database(cfg.DatabaseName))

		if err := utils.InitSessionCache(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		redisClient = utils.SessionCacheClient
		roleCache = identity.NewRedisRoleCache(redisClient, cfg.SessionTTL)
	}

	notifier, stopWorker := buildNotifier(ctx, app, repos, logger)

	// Application sessions.
	registry := session.NewRegistry(session.Deps{
		Repos: repos,
		Identity: identity.Deps{
			Provider:    provider,
			Cache:       roleCache,
			InitTimeout: cfg.IdentityInitTimeout,
			CookieTTL:   cfg.SessionTTL,
		},
		Notifier:    notifier,
		Clock:       clock.WallClock,
		Logger:      logger,
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	go registry.Run(ctx, time.Minute)
	if err := middleware.RegisterSessionGauge(registry.Len); err != nil {
		logger.Warn("main: failed to register session gauge", zap.Error(err))
	}

	utils.StartHealthMonitor(ctx, redisClient, mongoClient, 30*time.Second)

	spa, err := handlers.NewSPAHandler(cfg.DistPath, config.FrontendEnv())
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	cookies := middleware.CookieOptions{Secure: cfg.SecureCookies, MaxAge: cfg.SessionTTL}
	handlerBundle := handlers.NewHandlerBundle(cookies, spa)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))

	routes.RegisterRoutes(router, handlerBundle, navigation.NewGuard(logger), middleware.Session(registry, cookies), cfg.CORSOrigins)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}
	stop()
	stopWorker()
	if mongoClient != nil {
		_ = mongoClient.Disconnect(shutdownCtx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

// buildNotifier picks how booking events reach devices. With Redis available
// events go through the task queue and a background worker delivers them; on
// the in-memory store they are pushed inline. The returned function stops
// whatever was started.
func buildNotifier(ctx context.Context, app *firebase.App, repos *repository.Repositories, logger *zap.Logger) (booking.Notifier, func()) {
	if !config.AppConfig.PushEnabled {
		return notification.Noop{}, func() {}
	}
	fcm, err := utils.MessagingClient(ctx, app)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	sender, err := notification.NewPushSender(repos.Users, fcm, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	if config.UseMemoryStore() {
		return sender, func() {}
	}

	client := asynq.NewClient(cron.RedisOpt())
	shutdown := cron.InitNotificationWorker(sender, logger)
	return notification.NewQueueNotifier(client), func() {
		shutdown()
		_ = client.Close()
	}
}
