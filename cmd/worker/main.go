package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"projectpulse/config"
	contracts "projectpulse/contracts/mq"
	"projectpulse/internal/slack"
	"projectpulse/internal/worker"
	"projectpulse/pkg/logger"
	"projectpulse/pkg/mq"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	zlog := logger.NewLogger()
	defer zlog.Sync()

	// 2. Init chat client
	chat := slack.NewClient(cfg.Slack.BaseURL, cfg.Slack.BotToken, zlog)

	// 3. Init RabbitMQ consumer for notification.created events
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "notification-worker", contracts.RoutingKeyNotificationCreated, zlog)
	if err != nil {
		log.Fatalf("failed to init consumer: %v", err)
	}
	defer consumer.Close()

	notificationHandler := worker.NewNotificationHandler(chat, cfg.Slack.Channel, zlog)
	consumer.SetHandler(notificationHandler.Handle)

	// Start consumer in goroutine (StartConsuming blocks)
	go func() {
		if err := consumer.StartConsuming(); err != nil {
			zlog.Fatal("consumer start failed", zap.Error(err))
		}
	}()

	zlog.Info("Worker started", zap.String("channel", cfg.Slack.Channel))

	// 4. Block until shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zlog.Info("Worker shutting down")
}
