package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sports-facility-api/api/swagger"
	"github.com/noah-isme/sports-facility-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sports-facility-api/internal/middleware"
	"github.com/noah-isme/sports-facility-api/internal/repository"
	"github.com/noah-isme/sports-facility-api/internal/service"
	"github.com/noah-isme/sports-facility-api/pkg/cache"
	"github.com/noah-isme/sports-facility-api/pkg/clock"
	"github.com/noah-isme/sports-facility-api/pkg/config"
	"github.com/noah-isme/sports-facility-api/pkg/database"
	"github.com/noah-isme/sports-facility-api/pkg/jobs"
	"github.com/noah-isme/sports-facility-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sports-facility-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sports-facility-api/pkg/middleware/requestid"
	"github.com/noah-isme/sports-facility-api/pkg/mq"
)

// @title Sports Facility API
// @version 1.0.0
// @description Court bookings, personal sessions and group classes for a sports facility.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk, err := clock.NewSystem(cfg.Scheduling.Timezone)
	if err != nil {
		logr.Fatal("invalid facility timezone", zap.String("timezone", cfg.Scheduling.Timezone), zap.Error(err))
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrations.AutoApply {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.AvailabilityEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, availability cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	var publisher jsonPublisher
	if cfg.Broker.Enabled {
		p, err := mq.NewPublisher(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			logr.Warn("broker unavailable, notifications stay in-app only", zap.Error(err))
		} else {
			defer p.Close() //nolint:errcheck
			publisher = p
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	resourceRepo := repository.NewResourceRepository(db)
	windowRepo := repository.NewAvailabilityRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	classRepo := repository.NewClassRepository(db)
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	chargeRepo := repository.NewChargeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.AvailabilityTTL, logr, redisClient != nil)
	conflicts := service.NewConflictDetector(commitmentRepo)
	chargeSvc := service.NewChargeService(chargeRepo, validate, metricsSvc, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, publisher, clk, metricsSvc, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	notificationQueue := jobs.NewQueue(service.NotificationJobType, notificationSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
		OnFinal:    notificationSvc.Settled,
	})
	notificationQueue.Start(context.Background())
	defer notificationQueue.Stop()
	notificationSvc.AttachQueue(notificationQueue)

	deps := service.SchedulingDeps{
		Tx:        database.NewTransactor(db),
		Clock:     clk,
		Resources: resourceRepo,
		Windows:   windowRepo,
		Conflicts: conflicts,
		Billing:   chargeSvc,
		Notifier:  notificationSvc,
		Cache:     cacheSvc,
		Policy:    service.NewAccessPolicy(),
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	}

	availabilitySvc := service.NewAvailabilityService(windowRepo, resourceRepo, conflicts, cacheSvc, clk, validate, logr, service.AvailabilityConfig{
		SlotMinutes: cfg.Scheduling.SlotMinutes,
		CacheTTL:    cfg.Cache.AvailabilityTTL,
	})
	bookingSvc := service.NewBookingService(bookingRepo, deps, service.BookingConfig{ChargeDueDays: cfg.Scheduling.ChargeDueDays})
	occurrenceSvc := service.NewOccurrenceService(classRepo, occurrenceRepo, enrollmentRepo, deps, service.OccurrenceConfig{MaxGenerationDays: cfg.Scheduling.MaxGenerationDays})
	enrollmentSvc := service.NewEnrollmentService(classRepo, occurrenceRepo, enrollmentRepo, deps, service.EnrollmentConfig{ChargeDueDays: cfg.Scheduling.ChargeDueDays})

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	occurrenceHandler := handler.NewOccurrenceHandler(occurrenceSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		swagger.SwaggerInfo.BasePath = cfg.APIPrefix
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc), internalmiddleware.AnyRole())

	availability := api.Group("/availability/:type/:id")
	availability.GET("", availabilityHandler.DailySlots)
	availability.GET("/windows", availabilityHandler.ListWindows)
	availability.PUT("/windows", internalmiddleware.AdminOnly(), availabilityHandler.SetWindow)

	bookings := api.Group("/bookings")
	bookings.POST("/check-availability", bookingHandler.CheckAvailability)
	bookings.POST("", bookingHandler.Create)
	bookings.GET("", bookingHandler.List)
	bookings.GET("/me", bookingHandler.ListMine)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.PATCH("/:id", bookingHandler.Reschedule)
	bookings.PATCH("/:id/cancel", bookingHandler.Cancel)
	bookings.PATCH("/:id/confirm", internalmiddleware.AdminOnly(), bookingHandler.Confirm)

	occurrences := api.Group("/class-occurrences")
	occurrences.POST("/generate", internalmiddleware.AdminOnly(), occurrenceHandler.Generate)
	occurrences.GET("", occurrenceHandler.List)
	occurrences.GET("/:id/enrollments", occurrenceHandler.Roster)
	occurrences.PATCH("/:id/cancel", internalmiddleware.AdminOnly(), occurrenceHandler.Cancel)
	occurrences.PATCH("/:id/confirm", internalmiddleware.AdminOnly(), occurrenceHandler.Confirm)

	enrollments := api.Group("/class-enrollments")
	enrollments.POST("", enrollmentHandler.Enroll)
	enrollments.GET("/me", enrollmentHandler.ListMine)
	enrollments.DELETE("/:id", enrollmentHandler.Cancel)

	api.GET("/notifications/me", notificationHandler.ListMine)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
