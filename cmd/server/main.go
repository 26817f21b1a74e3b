package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/config"
	"github.com/slotwise/service-scheduling/internal/events"
	"github.com/slotwise/service-scheduling/internal/handler"
	"github.com/slotwise/service-scheduling/internal/locking"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/clock"
	"github.com/slotwise/service-scheduling/internal/platform/database"
	"github.com/slotwise/service-scheduling/internal/platform/health"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"github.com/slotwise/service-scheduling/internal/platform/logger"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/ratelimit"
	"github.com/slotwise/service-scheduling/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.NewNamed(cfg.AppEnv, "service-scheduling")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Connect(database.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = producer.Close() }()

	clk := clock.System{}
	availCache := cache.New(cfg.Scheduling.CacheTTL, cfg.Scheduling.CacheMaxEntries, clk.Now)

	serviceRepo := repository.NewGormServiceRepository(db)
	ruleRepo := repository.NewGormRuleRepository(db)
	blackoutRepo := repository.NewGormBlackoutRepository(db)
	reservationRepo := repository.NewGormReservationRepository(db)
	softLockRepo := repository.NewGormSoftLockRepository(db)

	locker := locking.NewStoreLocker(repository.NewGormLockStore(db), cfg.Scheduling.SlotLockTTL)
	limiter := ratelimit.New(
		repository.NewGormCounterStore(db),
		cfg.Scheduling.RateLimitWindow,
		map[string]int{
			ratelimit.ScopeEmail: cfg.Scheduling.RateLimitPerEmail,
			ratelimit.ScopeIP:    cfg.Scheduling.RateLimitPerIP,
		},
		clk.Now,
	)

	availabilitySvc := application.NewAvailabilityService(serviceRepo, ruleRepo, blackoutRepo, reservationRepo, availCache, clk, log)
	softLockSvc := application.NewSoftLockService(softLockRepo, cfg.Scheduling.SoftLockTTL, clk, log)
	bookingSvc := application.NewBookingService(
		serviceRepo, reservationRepo, availabilitySvc, softLockSvc,
		locker, limiter, availCache, producer, clk, log,
		cfg.Scheduling.SlotLockWait,
	)
	scheduleSvc := application.NewScheduleService(ruleRepo, blackoutRepo, availCache, log)
	catalogSvc := application.NewCatalogService(serviceRepo, availCache, log)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go softLockSvc.RunSweeper(rootCtx, cfg.Scheduling.SoftLockSweep)

	calendarConsumer := events.NewCalendarEventConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.GroupPrefix+"scheduling.calendar",
		availCache,
		log,
	)
	go func() {
		if err := calendarConsumer.Start(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("calendar event consumer stopped", zap.Error(err))
		}
	}()
	defer func() { _ = calendarConsumer.Close() }()

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(log),
		middleware.LoggerMiddleware(log),
		middleware.RequestIDMiddleware(),
		middleware.CORSMiddleware(),
		middleware.SecurityHeadersMiddleware(),
	)

	health.NewHandler(db, "service-scheduling").RegisterRoutes(router)

	api := router.Group("/api/v1")
	handler.NewAvailabilityHandler(availabilitySvc).RegisterRoutes(api)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api)
	handler.NewSoftLockHandler(softLockSvc).RegisterRoutes(api)
	handler.NewAdminHandler(catalogSvc, scheduleSvc, bookingSvc).RegisterRoutes(api, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting scheduling service", zap.String("addr", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
