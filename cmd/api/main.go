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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-booking-api/internal/repository"
	"github.com/noah-isme/edu-booking-api/internal/service"
	"github.com/noah-isme/edu-booking-api/migrations"
	"github.com/noah-isme/edu-booking-api/pkg/cache"
	"github.com/noah-isme/edu-booking-api/pkg/config"
	"github.com/noah-isme/edu-booking-api/pkg/database"
	"github.com/noah-isme/edu-booking-api/pkg/logger"
)

// @title Edu Booking API
// @version 1.0.0
// @description Provider availability, slot listing and booking scheduling.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, migrations.FS); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.SlotCache {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, slot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	app := buildApp(cfg, db, redisClient, logr)

	if cfg.Expiry.Enabled {
		app.expiry.Start(ctx)
		defer app.expiry.Stop()
	}

	router := newRouter(cfg, app, logr)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
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

type application struct {
	db           *sqlx.DB
	cache        *repository.CacheRepository
	auth         *service.AuthService
	metrics      *service.MetricsService
	providers    *service.ProviderService
	availability *service.AvailabilityService
	slots        *service.SlotService
	bookings     *service.BookingService
	recurring    *service.RecurringBookingService
	expiry       *service.ExpiryScanner
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *application {
	loc := cfg.Scheduling.Location()

	metricsSvc := service.NewMetricsService()
	var (
		cacheRepo  *repository.CacheRepository
		cacheStore service.CacheRepository
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		cacheStore = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheStore, metricsSvc, cfg.Redis.SlotCacheTTL, logr, cfg.Redis.SlotCache && cacheRepo != nil)

	txManager := repository.NewTxManager(db)
	providerRepo := repository.NewProviderRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	requestRepo := repository.NewBookingRequestRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	recurringRepo := repository.NewRecurringBookingRepository(db)
	commitmentRepo := repository.NewCommitmentRepository(db)

	checker := service.NewConflictChecker(commitmentRepo, loc, logr)

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	providerSvc := service.NewProviderService(txManager, providerRepo, availabilityRepo, requestRepo, cacheSvc, metricsSvc, logr)
	availabilitySvc := service.NewAvailabilityService(providerRepo, availabilityRepo, cacheSvc, loc, logr, nil)
	slotSvc := service.NewSlotService(providerRepo, availabilityRepo, checker, cacheSvc, metricsSvc, service.SlotPolicy{
		Granularity:    cfg.Scheduling.GranularityMinutes,
		HorizonDays:    cfg.Scheduling.HorizonDays,
		MaxHorizonDays: cfg.Scheduling.MaxHorizonDays,
		CacheTTL:       cfg.Redis.SlotCacheTTL,
	}, logr, nil)
	bookingSvc := service.NewBookingService(txManager, providerRepo, requestRepo, sessionRepo, commitmentRepo, checker,
		service.BookingPolicy{ExpiryLead: cfg.Scheduling.ExpiryLead, MaxSessionMinutes: cfg.Scheduling.MaxSessionMinutes},
		logr,
		service.WithBookingCache(cacheSvc),
		service.WithBookingMetrics(metricsSvc),
	)
	recurringSvc := service.NewRecurringBookingService(txManager, providerRepo, recurringRepo, commitmentRepo, checker,
		service.RecurringPolicy{AutoApproveReschedules: cfg.Scheduling.RescheduleAutoApprove, HorizonDays: cfg.Scheduling.MaxHorizonDays},
		logr,
		service.WithRecurringCache(cacheSvc),
		service.WithRecurringMetrics(metricsSvc),
	)
	expiry := service.NewExpiryScanner(requestRepo, metricsSvc, service.ExpiryScannerConfig{
		Interval: cfg.Expiry.Interval,
		Retries:  cfg.Expiry.Retries,
	}, logr, nil)

	return &application{
		db:           db,
		cache:        cacheRepo,
		auth:         authSvc,
		metrics:      metricsSvc,
		providers:    providerSvc,
		availability: availabilitySvc,
		slots:        slotSvc,
		bookings:     bookingSvc,
		recurring:    recurringSvc,
		expiry:       expiry,
	}
}
