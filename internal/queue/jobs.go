// Package queue defines the background task types, their payloads and the
// helpers used to enqueue them.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// ThumbnailTask is scheduled each time an image is uploaded.
	ThumbnailTask = "file:thumbnail"
	// WelcomeTask is scheduled each time a user registers.
	WelcomeTask = "user:welcome"

	// ThumbnailQueue and EmailQueue are independent asynq queues so a burst of
	// uploads never delays welcome emails and vice versa.
	ThumbnailQueue = "thumbnails"
	EmailQueue     = "emails"
)

// DefaultMaxRetry is used when an Enqueuer is built without a retry budget.
const DefaultMaxRetry = 5

// ThumbnailPayload tells the worker which image to derive thumbnails from.
type ThumbnailPayload struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}

// WelcomePayload tells the worker which user to greet.
type WelcomePayload struct {
	UserID string `json:"userId"`
}

// Client is the part of *asynq.Client used to submit tasks.
type Client interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer submits typed tasks to their queues.
type Enqueuer struct {
	client   Client
	maxRetry int
}

// NewEnqueuer wraps client. maxRetry < 0 selects DefaultMaxRetry.
func NewEnqueuer(client Client, maxRetry int) *Enqueuer {
	if maxRetry < 0 {
		maxRetry = DefaultMaxRetry
	}
	return &Enqueuer{client: client, maxRetry: maxRetry}
}

// EnqueueThumbnail enqueues thumbnail generation for an image.
func (e *Enqueuer) EnqueueThumbnail(ctx context.Context, payload ThumbnailPayload) error {
	return e.enqueue(ctx, ThumbnailTask, ThumbnailQueue, payload)
}

// EnqueueWelcome enqueues the welcome email for a new user.
func (e *Enqueuer) EnqueueWelcome(ctx context.Context, payload WelcomePayload) error {
	return e.enqueue(ctx, WelcomeTask, EmailQueue, payload)
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType, queueName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	if _, err := e.client.EnqueueContext(ctx, task, asynq.Queue(queueName), asynq.MaxRetry(e.maxRetry)); err != nil {
		return fmt.Errorf("enqueue %s task: %w", taskType, err)
	}
	return nil
}
