package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/anyulbade/annotation-payouts/internal/config"
	"github.com/anyulbade/annotation-payouts/internal/database"
	"github.com/anyulbade/annotation-payouts/internal/handler"
	"github.com/anyulbade/annotation-payouts/internal/lock"
	"github.com/anyulbade/annotation-payouts/internal/metrics"
	"github.com/anyulbade/annotation-payouts/internal/middleware"
	"github.com/anyulbade/annotation-payouts/internal/processor"
	"github.com/anyulbade/annotation-payouts/internal/repository"
	"github.com/anyulbade/annotation-payouts/internal/service"
)

const serviceName = "annotation-payouts"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed data")
		}
	}

	version, dirty, err := database.SchemaVersion(cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read schema version")
	}
	if dirty {
		log.Fatal().Uint("schema_version", version).Msg("database schema is dirty, repair it before starting")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = lock.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		log.Warn().Msg("REDIS_URL not set, onboarding requests are not locked")
	}

	if cfg.ProcessorAPIKey == "" {
		log.Warn().Msg("PROCESSOR_API_KEY not set, processor calls will fail")
	}
	if cfg.ProcessorWebhookSecret == "" {
		log.Warn().Msg("PROCESSOR_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	router := gin.New()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.SetupSwagger(router)
	setupAPIRoutes(router, cfg, pool, redisClient)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("platform_country", cfg.PlatformCountry).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) {
	userRepo := repository.NewUserRepository(pool)
	accountRepo := repository.NewPayeeAccountRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	proc := processor.NewStripeClient(processor.Config{
		APIKey:  cfg.ProcessorAPIKey,
		BaseURL: cfg.ProcessorBaseURL,
		Timeout: cfg.ProcessorTimeout,
	})
	verifier := processor.NewWebhookVerifier(cfg.ProcessorWebhookSecret, processor.DefaultSignatureTolerance)
	payoutMetrics := metrics.New(nil)

	var locker service.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient)
	}

	paymentService := service.NewPaymentService(userRepo, accountRepo, paymentRepo, proc, payoutMetrics, service.PaymentConfig{
		PlatformCountry: cfg.PlatformCountry,
		FeeRate:         cfg.PlatformFeeRate,
	})
	settlementService := service.NewSettlementService(paymentRepo, accountRepo, proc, payoutMetrics)
	accountService := service.NewAccountService(accountRepo, proc, locker, cfg.OnboardingLockTTL)
	queryService := service.NewQueryService(paymentRepo, cfg.PlatformCountry)
	webhookService := service.NewWebhookService(verifier, eventRepo, settlementService, accountService, payoutMetrics)

	paymentHandler := handler.NewPaymentHandler(paymentService, queryService)
	accountHandler := handler.NewAccountHandler(accountService)
	countriesHandler := handler.NewCountriesHandler(queryService)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	api := router.Group("/api/v1")
	{
		api.GET("/countries", countriesHandler.List)
		api.POST("/webhooks/processor", webhookHandler.Receive)
	}

	authed := api.Group("")
	authed.Use(middleware.Authenticate(userRepo))
	{
		authed.POST("/payments/intents", paymentHandler.CreateIntent)
		authed.GET("/payments", paymentHandler.List)
		authed.POST("/accounts/onboard", accountHandler.Onboard)
		authed.GET("/accounts/status", accountHandler.Status)
	}
}
