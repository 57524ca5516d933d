// Package bootstrap builds the shared connection handles used by every
// binary from a loaded Config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/filesmanager/internal/config"
	"github.com/dharsanguruparan/filesmanager/internal/mail"
	"github.com/dharsanguruparan/filesmanager/internal/s3storage"
	"github.com/dharsanguruparan/filesmanager/internal/storage"
)

// Redis returns a client for the session store.
func Redis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// QueueRedis returns the asynq connection options for the work queue.
func QueueRedis(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// BlobStore opens the configured blob backend. Only backends shared between
// the API and worker processes are selectable.
func BlobStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.BlobBackend {
	case config.BlobS3:
		s, err := s3storage.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.BlobDisk:
		d, err := storage.NewDiskStore(cfg.FolderPath)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

// Mailer returns an SMTP sender when a relay is configured and a logging
// sender otherwise.
func Mailer(cfg *config.Config, logger *zap.Logger) mail.Sender {
	if !cfg.Mailer() {
		return mail.NewLogSender(logger)
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}
