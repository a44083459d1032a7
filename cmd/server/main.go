package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-graph/config"
	"commerce-graph/internal/api"
	"commerce-graph/internal/auth"
	"commerce-graph/internal/broker"
	"commerce-graph/internal/redisclient"
	"commerce-graph/internal/service"
	"commerce-graph/internal/store"
	"commerce-graph/internal/util"
	"commerce-graph/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting commerce graph service")

	tp, err := util.InitTracer("commerce-graph", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URI, cfg.Database.Name, cfg.Database.UseTransactions)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected",
		zap.String("database", cfg.Database.Name),
		zap.Bool("transactions", cfg.Database.UseTransactions))

	checks := map[string]api.Pinger{"mongo": db}

	var (
		locker  service.Locker = service.NopLocker{}
		deduper worker.Deduper
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

		locker = redisClient
		deduper = redisClient
		checks["redis"] = redisClient
	} else {
		logger.Warn("REDIS_ADDR not set, order locks and event dedupe are disabled")
	}

	var publisher service.EventPublisher = broker.NopPublisher{}
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var stockWorker *worker.StockAlertWorker
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		stockWorker = worker.NewStockAlertWorker(consumer, deduper, cfg.Business.LowStockThreshold)
		go func() {
			if err := stockWorker.Start(workerCtx); err != nil {
				logger.Error("Stock alert worker error", zap.Error(err))
			}
		}()
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	if err != nil {
		logger.Fatal("Failed to create token service", zap.Error(err))
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	guard := auth.NewGuard(cfg.Auth.Policy)
	policy := guard.Policy()
	logger.Info("Authorization policy",
		zap.String("order_update", string(policy.OrderUpdate)),
		zap.Bool("product_ownership", policy.ProductOwnership))

	services := api.Services{
		Users:     service.NewUserService(db, tokens, hasher),
		Products:  service.NewProductService(db, guard, publisher),
		Clients:   service.NewClientService(db, guard),
		Orders:    service.NewOrderService(db, db, guard, publisher, locker, cfg.Business.OrderLockTTL),
		Analytics: service.NewAnalyticsService(db, cfg.Business.RecentActivityLimit),
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler, err := api.NewHandler(services, tokens, checks)
	if err != nil {
		logger.Fatal("Failed to build API", zap.Error(err))
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if stockWorker != nil {
		if err := stockWorker.Stop(); err != nil {
			logger.Error("Error stopping stock alert worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
