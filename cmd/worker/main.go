// Package main runs the standalone email worker. Run it when the API instances should not
// send mail themselves; several workers may share the queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agrimech/portal/config"
	"github.com/agrimech/portal/internal/emaillogs"
	"github.com/agrimech/portal/internal/notify"
	"github.com/agrimech/portal/internal/worker"
	"github.com/agrimech/portal/pkg/database"
	"github.com/agrimech/portal/pkg/logging"
	"github.com/agrimech/portal/pkg/queue"
	"github.com/agrimech/portal/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	env := ""
	if cfg != nil {
		env = cfg.Env
	}
	logger := logging.New(env)
	defer logger.Sync()
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

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(emaillogs.NewRepository(pool), notify.NewSender(cfg.Email, logger), jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(workerCtx)
	}()
	if depth, err := jobQueue.Depth(ctx); err == nil {
		logger.Info("worker started", zap.String("transport", cfg.Email.Transport()), zap.Int64("pending", depth))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}
