package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shutterbook/config"
	"shutterbook/cron"
	"shutterbook/database"
	calendarRepo "shutterbook/database/repository/calendar"
	"shutterbook/handlers"
	"shutterbook/middleware"
	"shutterbook/models"
	"shutterbook/routes"
	"shutterbook/services/advisory"
	"shutterbook/services/booking"
	ai "shutterbook/services/intelligence"
	"shutterbook/services/notification"
	"shutterbook/services/tasks"
	"shutterbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedCfg, err := booking.SchedulerConfigFromConfig(cfg)
	if err != nil {
		logger.Fatal("main: invalid scheduler configuration", zap.Error(err))
	}

	store, checks, closeStore, err := openCalendarStore(ctx, cfg)
	if err != nil {
		logger.Fatal("main: failed to open calendar store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	cache := utils.GetCacheClient()
	checks = append(checks, utils.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
		return cache.Ping(ctx).Err()
	}})

	queue := asynq.NewClient(cron.RedisOpt())
	defer queue.Close()

	notifier, err := buildNotifier(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("main: failed to build notifier", zap.Error(err))
	}

	availability := booking.NewAvailabilityService(store, schedCfg)
	coordinator := booking.NewBookingCoordinator(store, notifier, tasks.NewAsynqRetryQueue(queue), schedCfg)
	worker := cron.InitConfirmationWorker(coordinator)

	weather := advisory.NewOpenMeteoProvider(cfg.GeocodingBaseURL, cfg.WeatherBaseURL,
		advisory.NewRedisCache(cache), cfg.AdvisoryCacheTTL(), cfg.AdvisoryTimeout(), logger)
	suggestions, closeGemini := buildSuggestions(ctx, cfg, store, availability.ListSessionTypes(), cache, logger)
	defer closeGemini()

	utils.StartHealthMonitor(ctx, 30*time.Second, checks)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	bundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(availability, coordinator, schedCfg.Hours.Location),
		handlers.NewAdminHandler(coordinator),
		handlers.NewAdvisoryHandler(weather, suggestions, schedCfg.Hours.Location),
		handlers.HealthHandler,
	)
	routes.RegisterRoutes(router, bundle, cfg.AllowedOrigins)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()

	logger.Info("main: server stopped gracefully")
}

func openCalendarStore(ctx context.Context, cfg config.Config) (calendarRepo.CalendarStore, []utils.HealthCheck, func(), error) {
	logger := utils.GetLogger()

	switch cfg.StoreDriver {
	case "mongo":
		if err := database.InitDB(ctx); err != nil {
			return nil, nil, nil, err
		}
		store := calendarRepo.NewMongoCalendarStore(database.Database())
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, nil, fmt.Errorf("ensure calendar indexes: %w", err)
		}
		closeFn := func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.CloseDB(cctx); err != nil {
				logger.Warn("Mongo disconnect failed", zap.Error(err))
			}
		}
		return store, []utils.HealthCheck{{Name: "mongo", Check: database.MongoReadyCheck}}, closeFn, nil

	case "postgres":
		pool, err := database.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, nil, err
		}
		store := calendarRepo.NewPostgresCalendarStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ensure calendar schema: %w", err)
		}
		return store, []utils.HealthCheck{{Name: "postgres", Check: database.PostgresReadyCheck(pool)}}, pool.Close, nil

	case "memory":
		logger.Warn("Using in-memory calendar store; bookings are lost on restart and not shared between instances")
		return calendarRepo.NewMemoryCalendarStore(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (*notification.BookingNotifier, error) {
	email := notification.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	var push notification.PushClient
	if cfg.FirebaseCredentialsFile != "" {
		client, err := utils.NewFCMClient(ctx)
		if err != nil {
			logger.Warn("FCM unavailable, booking pushes disabled", zap.Error(err))
		} else {
			push = client
		}
	}
	return notification.NewBookingNotifier(email, push, logger)
}

func buildSuggestions(ctx context.Context, cfg config.Config, history ai.BookingHistory, profiles []models.SessionTypeProfile, cache *redis.Client, logger *zap.Logger) (*ai.GeminiSuggestionService, func()) {
	sessionTypes := make([]models.SessionType, 0, len(profiles))
	for _, p := range profiles {
		sessionTypes = append(sessionTypes, p.SessionType)
	}

	var gen ai.TextGenerator
	closeFn := func() {}
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("Gemini unavailable, suggestions disabled", zap.Error(err))
		} else {
			gen = client
			closeFn = func() { client.Close() }
		}
	}
	store := ai.NewRedisContextStore(cache, cfg.AdvisoryCacheTTL())
	return ai.NewGeminiSuggestionService(gen, store, history, sessionTypes, cfg.AdvisoryTimeout(), logger), closeFn
}
