package models

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Task is a background unit of work consumed from the task router.
type Task interface {
	Execute(ctx context.Context, msg *message.Message) error
	HandleError(err error)
}

// TaskRouter routes task messages to their handlers.
type TaskRouter interface {
	AddTask(ctx context.Context, name, taskType string, task Task)
	Run(ctx context.Context) error
	Close() error
}

// TaskPublisher publishes task messages. Publishing is fire-and-forget from
// the caller's perspective; failures are logged, not surfaced.
type TaskPublisher interface {
	Publish(taskType string, metadata map[string]string, payload any) error
	Close() error
}

// ProductEmbeddingTask is the payload for a lazy embedding recompute.
type ProductEmbeddingTask struct {
	UUID uuid.UUID `json:"uuid"`
	// Force recomputes the embedding even if one is already stored.
	Force bool `json:"force,omitempty"`
}
