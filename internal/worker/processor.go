// Package worker holds the asynq handlers run by cmd/worker.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dharsanguruparan/filesmanager/internal/ident"
	"github.com/dharsanguruparan/filesmanager/internal/mail"
	"github.com/dharsanguruparan/filesmanager/internal/model"
	"github.com/dharsanguruparan/filesmanager/internal/queue"
	"github.com/dharsanguruparan/filesmanager/internal/repository"
	"github.com/dharsanguruparan/filesmanager/internal/storage"
	"github.com/dharsanguruparan/filesmanager/internal/thumbnail"
)

// FileLookup finds a file by id and owner.
type FileLookup interface {
	GetOwned(ctx context.Context, id, owner string) (*model.File, error)
}

// UserLookup finds an account by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	files  FileLookup
	users  UserLookup
	blobs  storage.BlobStore
	sender mail.Sender
	logger *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(files FileLookup, users UserLookup, blobs storage.BlobStore, sender mail.Sender, logger *zap.Logger) *Processor {
	return &Processor{
		files:  files,
		users:  users,
		blobs:  blobs,
		sender: sender,
		logger: logger,
	}
}

// Handler registers one handler per task type.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ThumbnailTask, p.handleThumbnail)
	mux.HandleFunc(queue.WelcomeTask, p.handleWelcome)
	return mux
}

// terminal marks err so asynq archives the task instead of retrying it.
func terminal(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), asynq.SkipRetry)
}

func (p *Processor) handleThumbnail(ctx context.Context, task *asynq.Task) error {
	var payload queue.ThumbnailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return terminal("decode payload: %v", err)
	}
	if payload.FileID == "" {
		return terminal("missing fileId")
	}
	if payload.UserID == "" {
		return terminal("missing userId")
	}
	if !ident.Valid(payload.FileID) || !ident.Valid(payload.UserID) {
		return terminal("file not found")
	}
	f, err := p.files.GetOwned(ctx, payload.FileID, payload.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return terminal("file not found")
	}
	if err != nil {
		return fmt.Errorf("load file %s: %w", payload.FileID, err)
	}
	if f.LocalPath == "" {
		return terminal("file %s has no content", f.ID)
	}

	src, err := p.blobs.Read(ctx, f.LocalPath)
	if err != nil {
		return fmt.Errorf("read original %s: %w", f.ID, err)
	}
	img, format, err := thumbnail.Decode(src)
	if err != nil {
		return terminal("file %s: %v", f.ID, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, width := range thumbnail.Widths() {
		width := width
		g.Go(func() error {
			out, err := thumbnail.Resize(img, format, width)
			if err != nil {
				return err
			}
			return p.blobs.Write(gctx, thumbnail.VariantName(f.LocalPath, width), out)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("thumbnails for %s: %w", f.ID, err)
	}
	p.logger.Info("thumbnails generated", zap.String("file_id", f.ID), zap.Ints("widths", thumbnail.Widths()))
	return nil
}

func (p *Processor) handleWelcome(ctx context.Context, task *asynq.Task) error {
	var payload queue.WelcomePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return terminal("decode payload: %v", err)
	}
	if payload.UserID == "" {
		return terminal("missing userId")
	}
	if !ident.Valid(payload.UserID) {
		return terminal("user not found")
	}
	u, err := p.users.GetByID(ctx, payload.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return terminal("user not found")
	}
	if err != nil {
		return fmt.Errorf("load user %s: %w", payload.UserID, err)
	}
	body, err := mail.WelcomeBody(u.Email)
	if err != nil {
		return terminal("%v", err)
	}
	p.logger.Info("sending welcome email", zap.String("user_id", u.ID), zap.String("to", u.Email))
	if err := p.sender.Send(ctx, u.Email, mail.WelcomeSubject, body); err != nil {
		return fmt.Errorf("welcome %s: %w", u.ID, err)
	}
	return nil
}

// ErrorHandler logs every failed attempt.
func (p *Processor) ErrorHandler() asynq.ErrorHandler {
	return asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		p.logger.Warn("task failed",
			zap.String("type", task.Type()),
			zap.Bool("terminal", errors.Is(err, asynq.SkipRetry)),
			zap.Int("retried", retried),
			zap.Int("max_retry", maxRetry),
			zap.Error(err),
		)
	})
}
