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

	"cafeteria-service/config"
	"cafeteria-service/internal/api"
	"cafeteria-service/internal/broker"
	"cafeteria-service/internal/redisclient"
	"cafeteria-service/internal/service"
	"cafeteria-service/internal/store"
	"cafeteria-service/internal/util"
	"cafeteria-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "cafeteria-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting cafeteria service",
		zap.String("env", cfg.Server.Env),
		zap.String("snapshot_backend", cfg.Snapshot.Backend))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(serviceName, cfg.Observ.JaegerEndpoint)
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
	}

	var opts []api.Option

	var db *store.Store
	if cfg.NeedsDatabase() {
		db, err = store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		if err := db.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("Failed to prepare schema", zap.Error(err))
		}
		opts = append(opts, api.WithReadinessCheck("postgres", db.Ping))
		logger.Info("Database connected")
	}

	var redisClient *redisclient.Client
	if cfg.NeedsRedis() {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Snapshot.RedisKey)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		opts = append(opts, api.WithReadinessCheck("redis", redisClient.Ping))
		if cfg.Business.IdempotencyTTLSeconds > 0 {
			ttl := time.Duration(cfg.Business.IdempotencyTTLSeconds) * time.Second
			opts = append(opts, api.WithIdempotency(redisClient, ttl))
		}
		logger.Info("Redis connected")
	}

	var snapshots service.SnapshotStore
	switch cfg.Snapshot.Backend {
	case config.BackendPostgres:
		snapshots = db
		if cfg.Snapshot.MirrorToRedis {
			snapshots = service.NewMirroredStore(db, redisClient)
		}
	case config.BackendRedis:
		snapshots = redisClient
	}

	var events service.EventPublisher
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var auditWorker *worker.AuditWorker
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
		defer producer.Close()
		events = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
		auditWorker = worker.NewAuditWorker(consumer, db)
		opts = append(opts, api.WithAuditTrail(db))
		go func() {
			if err := auditWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Audit worker error", zap.Error(err))
			}
		}()
	}

	engine := service.NewOrderEngine(snapshots, events, cfg.Business.BcryptCost)
	seeded, err := engine.Load(context.Background())
	switch {
	case service.IsPersistWarning(err):
		logger.Warn("Engine state loaded but could not be saved", zap.Error(err))
	case err != nil:
		logger.Fatal("Failed to load engine state", zap.Error(err))
	}
	logger.Info("Engine ready", zap.Bool("seeded", seeded))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(engine, opts...)
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

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if auditWorker != nil {
		if err := auditWorker.Stop(); err != nil {
			logger.Error("Error stopping audit worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
