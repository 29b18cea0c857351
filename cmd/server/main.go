// Package main is the entry point for the telewatch HTTP daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mpetrenko/telewatch/internal/config"
	"github.com/mpetrenko/telewatch/internal/handler"
	"github.com/mpetrenko/telewatch/internal/metrics"
	"github.com/mpetrenko/telewatch/internal/middleware"
	"github.com/mpetrenko/telewatch/internal/remote"
	"github.com/mpetrenko/telewatch/internal/repository"
	"github.com/mpetrenko/telewatch/internal/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			// Handle error silently
			_ = syncErr
		}
	}()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	var repo repository.Repository
	if cfg.Storage.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Storage.GetDSN())
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", zap.Error(err))
			}
		}()

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		repo = repository.NewRepository(db)
	} else {
		logger.Info("Storage disabled, recovery events and readings will not be archived")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
	} else {
		logger.Info("Redis disabled, latest reading will not be published")
	}

	client := remote.NewHTTPClient(remote.Config{
		BaseURL:  cfg.Telemetry.BaseURL,
		Username: cfg.Telemetry.Username,
		Password: cfg.Telemetry.Password,
		Timeout:  time.Duration(cfg.Telemetry.RequestTimeout) * time.Second,
	}, logger)
	defer client.Close()

	svc, err := service.NewService(cfg, client, repo, redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to wire services", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		metrics.NewCollector(svc.Monitor),
	)

	h := handler.NewHandler(svc, time.Duration(cfg.Telemetry.MaxDataAgeSeconds)*time.Second, logger)
	router := setupRouter(h, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	middlewareConfig := &middleware.Config{
		Logger:         logger,
		RateLimit:      rate.Limit(cfg.Middleware.RateLimit),
		RateLimitBurst: cfg.Middleware.RateLimitBurst,
		RequestTimeout: 30 * time.Second,
		QuietPaths:     []string{"/metrics"},
	}
	if cfg.Middleware.EnableCORS {
		middlewareConfig.CORS = &middleware.CORSConfig{
			AllowedOrigins:   cfg.Middleware.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           86400,
		}
	}

	finalHandler := middleware.Chain(middlewareConfig)(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      finalHandler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Bring up the recovery orchestrator and the poll/heartbeat loops before
	// serving traffic.
	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()

	if err := svc.Start(runCtx); err != nil {
		logger.Fatal("Failed to start monitoring loops", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	svc.Stop()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
