// Command worker processes thumbnail and welcome email tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/bootstrap"
	"github.com/dharsanguruparan/filesmanager/internal/config"
	"github.com/dharsanguruparan/filesmanager/internal/database"
	"github.com/dharsanguruparan/filesmanager/internal/logging"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	blobs, err := bootstrap.BlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	processor := worker.NewProcessor(
		repository.NewFileRepository(pool),
		repository.NewUserRepository(pool),
		blobs,
		bootstrap.Mailer(cfg, logger.Named("mail")),
		logger.Named("worker"),
	)

	server := asynq.NewServer(bootstrap.QueueRedis(cfg), asynq.Config{
		Concurrency: cfg.ProcessingPool,
		Queues: map[string]int{
			queue.ThumbnailQueue: 1,
			queue.EmailQueue:     1,
		},
		Logger:       logger.Named("asynq").Sugar(),
		ErrorHandler: processor.ErrorHandler(),
	})

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("worker started", zap.Int("concurrency", cfg.ProcessingPool))
	return server.Run(processor.Handler())
}
