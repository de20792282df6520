package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyflow/internal/cache"
	"surveyflow/internal/config"
	"surveyflow/internal/logger"
	"surveyflow/internal/repository"
	"surveyflow/internal/service"
	"surveyflow/internal/transport/rest"
	"surveyflow/internal/transport/ws"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	log := logger.New("surveyflow")

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.WithError(err).Fatal("failed to ping MongoDB")
	}
	log.Info("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisURI
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.WithError(err).Fatal("failed to ping Redis")
	}
	log.Info("connected to Redis")

	// WebSocket monitor hub
	wsHub := ws.NewHub()

	// Repositories
	surveyRepo := repository.NewSurveyRepo(db)
	quotaRepo, err := repository.NewQuotaRepo(db)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize quota repository")
	}
	responseRepo := repository.NewResponseRepo(db)

	// Caches and counter
	sessionCache := cache.NewSessionCache(rdb)
	counter := cache.NewRedisQuotaCounter(rdb)

	// Services
	authSvc := service.NewAuthService(cfg)
	surveySvc := service.NewSurveyService(surveyRepo)
	quotaSvc := service.NewQuotaService(quotaRepo, counter, log, cfg.CounterMaxRetries)
	flowSvc := service.NewFlowService(surveySvc, quotaSvc, sessionCache, responseRepo, service.DefaultActionPriority, log)

	quotaSvc.SetBroadcaster(wsHub)
	flowSvc.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:   authSvc,
		SurveyService: surveySvc,
		QuotaService:  quotaSvc,
		FlowService:   flowSvc,
		WSHub:         wsHub,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen and serve")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}
