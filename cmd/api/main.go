package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Dan9191/weather-service/internal/auth"
	"github.com/Dan9191/weather-service/internal/cache"
	"github.com/Dan9191/weather-service/internal/config"
	"github.com/Dan9191/weather-service/internal/database"
	"github.com/Dan9191/weather-service/internal/handler"
	"github.com/Dan9191/weather-service/internal/integrations/ipapi"
	"github.com/Dan9191/weather-service/internal/integrations/weatherstack"
	"github.com/Dan9191/weather-service/internal/metrics"
	"github.com/Dan9191/weather-service/internal/middleware"
	"github.com/Dan9191/weather-service/internal/repository"
	"github.com/Dan9191/weather-service/internal/service"
	"github.com/Dan9191/weather-service/internal/utils/email"
	"github.com/Dan9191/weather-service/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database and schema
	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := database.RunMigrations(cfg.DBConn); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Optional geolocation cache
	var geoCache ipapi.Cache
	if cfg.GeoCacheAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.GeoCacheAddr})
		geoCache = cache.New(redisClient, "geo:", cfg.GeoCacheTTL)
		logger.Infof("Geolocation cache enabled at %s", cfg.GeoCacheAddr)
	}

	// Optional email sender
	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg, logger)
	}

	// Initialize layers
	m := metrics.New()
	repo := repository.NewRepository(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	weatherClient := weatherstack.NewClient(cfg, m, logger)
	geoResolver := ipapi.NewResolver(cfg, geoCache, m, logger)
	svc := service.NewService(repo, tokens, weatherClient, geoResolver, mailer, logger, cfg.BcryptCost)
	h := handler.NewHandler(svc, db, logger)

	// Rate limiting on protected routes
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, logger)
	defer limiter.Stop()

	// Setup router
	r := handler.NewRouter(h, tokens, limiter, m, logger)

	// Query log retention
	retention := worker.NewRetention(repo, cfg, logger)
	if err := retention.Start(); err != nil {
		logger.Fatalf("Failed to start retention worker: %v", err)
	}
	defer retention.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
