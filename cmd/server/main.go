package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	applots "github.com/vinaysengar-17/stock-trading/internal/application/service/lots"
	apptrades "github.com/vinaysengar-17/stock-trading/internal/application/service/trades"
	"github.com/vinaysengar-17/stock-trading/internal/config"
	"github.com/vinaysengar-17/stock-trading/internal/infrastructure/broker"
	infratrading "github.com/vinaysengar-17/stock-trading/internal/infrastructure/trading"
	infrahttp "github.com/vinaysengar-17/stock-trading/internal/interfaces/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	repo, err := infratrading.NewRepository(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalf("failed to init trading repo: %v", err)
	}
	defer repo.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var opts []apptrades.Option
	if cfg.RabbitMQ.Enabled() {
		publisher, err := broker.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
		if err != nil {
			logger.Fatalf("failed to init event publisher: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, apptrades.WithPublisher(publisher))
	}

	tradeService := apptrades.NewService(repo, logger, opts...)
	lotService := applots.NewService(repo)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handler := infrahttp.NewHandler(tradeService, lotService, redisClient, cacheTTL, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.HTTP.Addr(),
			"driver": repo.Driver(),
			"cache":  cfg.Redis.Enabled(),
			"events": cfg.RabbitMQ.Enabled(),
		}).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("server stopped")
}
