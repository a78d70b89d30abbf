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

	"admin-store/config"
	"admin-store/internal/api"
	"admin-store/internal/audit"
	"admin-store/internal/broker"
	"admin-store/internal/redisclient"
	"admin-store/internal/remote"
	"admin-store/internal/service"
	"admin-store/internal/store"
	"admin-store/internal/util"
	"admin-store/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting admin store")

	if cfg.Observ.JaegerEndpoint != "" {
		tp, err := util.InitTracer("admin-store", cfg.Observ.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
	}

	var (
		tokens   remote.TokenStore = remote.NewMemoryTokenStore(cfg.API.Token)
		orchOpts []service.OrchestratorOption
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TokenKey)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")

		seedCtx, seedCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if seeded, err := redisClient.SeedToken(seedCtx, cfg.API.Token); err != nil {
			logger.Warn("Failed to seed session token", zap.Error(err))
		} else if seeded {
			logger.Info("Session token seeded from configuration")
		}
		seedCancel()

		tokens = redisClient
		orchOpts = append(orchOpts, service.WithSyncLock(redisClient))
	}

	s := store.New()
	client := remote.NewClient(cfg.API.BaseURL, cfg.API.Timeout, tokens,
		remote.WithUnauthorizedHandler(func() {
			logger.Warn("Session expired, continuing with local data")
		}))
	orchestrator := service.NewSyncOrchestrator(s, client, service.NewServices(client), orchOpts...)

	var sink worker.AuditSink
	if cfg.Audit.DatabaseURL != "" {
		auditStore, err := audit.NewStore(cfg.Audit.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to audit database: %v", err)
		}
		defer auditStore.Close()
		log.Println("Audit database connected")
		sink = auditStore
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var (
		activityWorker *worker.ActivityWorker
		publisherDone  = make(chan struct{})
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicStoreEvents)
		defer producer.Close()
		log.Println("Kafka producer initialized")

		eventPublisher := broker.NewEventPublisher(producer, 0)
		eventPublisher.Attach(s.Bus())
		go func() {
			eventPublisher.Run(workerCtx)
			close(publisherDone)
		}()

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicStoreEvents, cfg.Kafka.ConsumerGroup)
		activityWorker = worker.NewActivityWorker(consumer, s, sink)
		go func() {
			if err := activityWorker.Start(workerCtx); err != nil {
				logger.Error("Activity worker error", zap.Error(err))
			}
		}()
	} else {
		close(publisherDone)
		activityWorker = worker.NewActivityWorker(nil, s, sink)
		activityWorker.Listen()
	}

	connectivity := worker.NewConnectivityWorker(client, orchestrator, cfg.Sync.ConnectivityInterval)
	go connectivity.Start(workerCtx)

	if cfg.Sync.SyncOnStart {
		go func() {
			if err := orchestrator.Start(workerCtx); err != nil {
				logger.Warn("Starting with partially synced data", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	handler := api.NewHandler(orchestrator)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	<-publisherDone
	activityWorker.Stop()

	log.Println("Server exited")
}
