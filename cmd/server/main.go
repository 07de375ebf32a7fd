package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"projectpulse/config"
	"projectpulse/internal/cache"
	"projectpulse/internal/handler"
	"projectpulse/internal/httpserver"
	"projectpulse/internal/linear"
	"projectpulse/internal/notify"
	"projectpulse/internal/scheduler"
	"projectpulse/internal/tracking"
	"projectpulse/pkg/clock"
	"projectpulse/pkg/logger"
	"projectpulse/pkg/mq"
	"projectpulse/pkg/redis"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	clk := clock.SystemClock{}

	// 2. Init tracker client and cache
	tracker := linear.NewClient(cfg.Linear.Endpoint, cfg.Linear.APIKey, cfg.Linear.TeamID, zlog)
	projectCache := cache.NewProjectCache(tracker, clk, zlog)

	// 3. Init Redis-backed tracking monitor
	redisClient := redis.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	dwell := time.Duration(cfg.Tracking.DwellHours) * time.Hour
	monitor := tracking.NewMonitor(tracking.NewRedisStore(redisClient), clk, dwell, zlog)

	// 4. Init RabbitMQ publisher and notification dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatalf("failed to init publisher: %v", err)
	}
	defer publisher.Close()

	dispatcher := notify.NewDispatcher(publisher, clk, zlog)

	// 5. Start the periodic sweep
	interval := time.Duration(cfg.Scheduler.IntervalHours) * time.Hour
	summaryGap := time.Duration(cfg.Scheduler.SummaryMinHours) * time.Hour
	sched := scheduler.New(projectCache, monitor, dispatcher, clk, interval, summaryGap, dwell, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	// 6. Init handlers
	authHandler := handler.NewAuthHandler(cfg.Auth, zlog)
	projectHandler := handler.NewProjectHandler(projectCache, tracker, monitor, dispatcher, clk, zlog)
	uploadHandler := handler.NewUploadHandler(zlog)
	notifyHandler := handler.NewNotifyHandler(projectCache, monitor, dispatcher, clk, dwell, zlog)

	// 7. Init router
	router := httpserver.NewRouter(
		authHandler,
		projectHandler,
		uploadHandler,
		notifyHandler,
		cfg.Auth.JWTSecret,
		publisher.IsConnected,
		zlog,
	)

	// 8. Run server
	zlog.Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(cfg.Server.Port); err != nil {
		zlog.Fatal("server start failed", zap.Error(err))
	}
}
