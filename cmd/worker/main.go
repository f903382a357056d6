package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reliefboard/config"
	contractsmq "reliefboard/contracts/mq"
	"reliefboard/internal/mqhandler"
	"reliefboard/internal/repository"
	"reliefboard/pkg/db"
	"reliefboard/pkg/logger"
	"reliefboard/pkg/mq"
	"reliefboard/pkg/outbox"
	"reliefboard/pkg/redis"
	"reliefboard/pkg/util"
)

const (
	alertQueue    = "request.created.alert.q"
	alertDedupTTL = time.Hour
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		panic(err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	defer logger.Sync()

	logger.Info("Starting worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	dbConn, err := db.NewConnection(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	var deduper mqhandler.Deduper
	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, alerts are not deduplicated", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		deduper = util.NewDeduper(rdb, alertDedupTTL, logger)
	}

	// MQ
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// repositories
	outboxRepo := outbox.NewRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn, outboxRepo, logger)

	// -------------------------
	// Outbox Dispatcher
	// -------------------------
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger).
		WithInterval(cfg.Outbox.Interval).
		WithBatchSize(cfg.Outbox.BatchSize).
		WithMaxRetries(cfg.Outbox.MaxRetries)
	go dispatcher.Start(ctx)

	// -------------------------
	// Urgent Alert Consumer
	// -------------------------
	logger.Info("Init consumer", zap.String("queue", alertQueue))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, alertQueue, contractsmq.RoutingKeyRequestCreated, logger)
	if err != nil {
		logger.Fatal("Alert consumer init failed", zap.Error(err))
	}
	defer consumer.Close()

	alertHandler := mqhandler.NewRequestCreatedAlertHandler(deduper, requestRepo, logger)
	consumer.SetHandler(alertHandler.HandleRequestCreated)

	logger.Info("Worker ready")
	if err := consumer.StartConsuming(ctx); err != nil {
		logger.Error("Alert consumer stopped", zap.Error(err))
	}
	logger.Info("Worker stopped")
}
