// Package main runs the background worker: notification delivery and the
// vehicle sticker expiry sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/villagio/backend/config"
	"github.com/villagio/backend/internal/auth"
	"github.com/villagio/backend/internal/notifications"
	"github.com/villagio/backend/internal/stickers"
	"github.com/villagio/backend/internal/worker"
	"github.com/villagio/backend/pkg/database"
	"github.com/villagio/backend/pkg/queue"
	"github.com/villagio/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	notifRepo := notifications.NewRepository(pool)
	userRepo := auth.NewRepository(pool)
	stickerRepo := stickers.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	var sender worker.Sender
	if cfg.Email.SMTPHost != "" {
		sender = &worker.SMTPSender{
			Host: cfg.Email.SMTPHost,
			Port: cfg.Email.SMTPPort,
			User: cfg.Email.SMTPUser,
			Pass: cfg.Email.SMTPPass,
			From: cfg.Email.FromAddress,
		}
	} else {
		logger.Warn("SMTP not configured, notifications are logged only")
		sender = &worker.LogSender{Logger: logger}
	}

	processor := worker.NewNotificationProcessor(notifRepo, userRepo, sender, jobQueue, logger)
	sweeper := worker.NewSweeper(stickerRepo, notifRepo, jobQueue, rdb.Client,
		time.Duration(cfg.Worker.SweepIntervalHours)*time.Hour, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go sweeper.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
