package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/nilantra/furniture-api/internal/cache"
	"github.com/nilantra/furniture-api/internal/config"
	"github.com/nilantra/furniture-api/internal/events"
	"github.com/nilantra/furniture-api/internal/handler"
	"github.com/nilantra/furniture-api/internal/repository"
	"github.com/nilantra/furniture-api/internal/service"
	"github.com/nilantra/furniture-api/internal/storage"
	"github.com/nilantra/furniture-api/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", "furniture-api", "env", cfg.App.Env)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Error("open store", "error", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer store.Close(context.Background())
	log.Info("connected to store", "driver", store.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel publishes, the worker consumes on its own.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()

	if err := events.SetupRabbitMQ(publishCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()
	log.Info("connected to RabbitMQ")

	productCache := cache.NewProductCache(redisClient, cfg.Redis.ProductCacheTTL)
	images := storage.NewImageStore(cfg.Server.UploadDir, "products")
	hub := events.NewHub(log)

	// Services
	authSvc := service.NewAuthService(store.Users, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(store.Users)
	productSvc := service.NewProductService(store.Products, productCache, images)
	cartSvc := service.NewCartService(store.Carts, store.Products)
	orderSvc := service.NewOrderService(store.Orders, store.Carts, store.Products, events.NewPublisher(publishCh), log)
	reviewSvc := service.NewReviewService(store.Reviews, store.Products)

	// Worker
	orderWorker := worker.NewOrderWorker(consumeCh, store.Orders, store.Products, productCache, redisClient, hub, log)
	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	router := handler.NewRouter(handler.Handlers{
		Auth:    handler.NewAuthHandler(authSvc),
		User:    handler.NewUserHandler(userSvc),
		Product: handler.NewProductHandler(productSvc, images),
		Cart:    handler.NewCartHandler(cartSvc),
		Order:   handler.NewOrderHandler(orderSvc, hub),
		Review:  handler.NewReviewHandler(reviewSvc),
		Health:  handler.NewHealthHandler(store.Driver, store.Ping, redisClient, amqpConn),
	}, handler.RouterConfig{
		Authenticator:   authSvc,
		Redis:           redisClient,
		RateLimitCount:  cfg.Redis.RateLimitCount,
		RateLimitPeriod: cfg.Redis.RateLimitPeriod,
		CORSOrigins:     cfg.Server.CORSOrigins,
		UploadDir:       cfg.Server.UploadDir,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Development:     cfg.App.IsDevelopment(),
		Log:             log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
