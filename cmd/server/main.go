package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"reliefboard/config"
	"reliefboard/internal/classifier"
	"reliefboard/internal/handler"
	"reliefboard/internal/httpserver"
	"reliefboard/internal/repository"
	"reliefboard/internal/service/auth"
	"reliefboard/internal/service/profile"
	"reliefboard/internal/service/request"
	"reliefboard/pkg/db"
	"reliefboard/pkg/logger"
	"reliefboard/pkg/mq"
	"reliefboard/pkg/outbox"
	"reliefboard/pkg/redis"
	"reliefboard/pkg/util"
)

const submitDedupTTL = 10 * time.Minute

func main() {
	// Load config
	cfg, err := config.Load("config")
	if err != nil {
		panic(err)
	}

	logger := logger.NewLogger(cfg.Log.Level)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	dbConn, err := db.NewConnection(ctx, cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis is optional; without it there is no verdict cache or idempotency
	rdb, err := redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, running without cache and deduplication", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// Init MQ Publisher, used by outbox replay
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Classifier
	gateway, err := classifier.NewFromConfig(ctx, cfg.Classifier, rdb, logger)
	if err != nil {
		logger.Fatal("Classifier initialization failed", zap.Error(err))
	}

	// Repositories
	outboxRepo := outbox.NewRepository(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	profileRepo := repository.NewProfileRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn, outboxRepo, logger)

	// Services
	authService := auth.NewService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL, logger)
	profileService := profile.NewService(profileRepo)
	var deduper request.Deduper
	if rdb != nil {
		deduper = util.NewDeduper(rdb, submitDedupTTL, logger)
	}
	requestService := request.NewService(requestRepo, gateway, deduper, logger)
	replayService := outbox.NewReplayService(outboxRepo, publisher, logger)

	// Router
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:     handler.NewAuthHandler(authService, logger),
		Requests: handler.NewRequestHandler(requestService, logger),
		Profile:  handler.NewProfileHandler(profileService, logger),
		Classify: handler.NewClassifyHandler(gateway, logger),
		Admin:    handler.NewAdminHandler(replayService, logger),
	}, cfg.JWT.Secret, dbConn, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Starting reliefboard API", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
