// Command server runs the files manager HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/api"
	"github.com/dharsanguruparan/filesmanager/internal/bootstrap"
	"github.com/dharsanguruparan/filesmanager/internal/config"
	"github.com/dharsanguruparan/filesmanager/internal/database"
	"github.com/dharsanguruparan/filesmanager/internal/files"
	"github.com/dharsanguruparan/filesmanager/internal/logging"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/session"
	"github.com/dharsanguruparan/filesmanager/internal/users"
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
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}

	rdb := bootstrap.Redis(cfg)
	defer rdb.Close()

	blobs, err := bootstrap.BlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}

	queueClient := asynq.NewClient(bootstrap.QueueRedis(cfg))
	defer queueClient.Close()
	enqueuer := queue.NewEnqueuer(queueClient, cfg.QueueMaxRetry)

	fileRepo := repository.NewFileRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	srv := api.New(cfg.Address, api.Deps{
		Sessions:   session.NewDirectory(rdb, cfg.SessionTTL),
		Users:      users.NewService(userRepo, enqueuer, logger.Named("users")),
		Files:      files.NewService(fileRepo, blobs, enqueuer, logger.Named("files")),
		UserCount:  userRepo,
		FileCount:  fileRepo,
		RedisProbe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		DBProbe:    pool.Ping,
		Logger:     logger.Named("api"),
	})
	return srv.Run(ctx)
}
