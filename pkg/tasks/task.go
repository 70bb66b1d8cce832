package tasks

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rasphia/rasphia/internal"
	"github.com/rasphia/rasphia/pkg/models"
)

const (
	ProductEmbedderTopic = "product_embedder"
)

var log = internal.GetLogger()

type BaseTask struct {
	appState *models.AppState // nolint: unused
}

func (b *BaseTask) Execute(
	ctx context.Context, // nolint: revive
	msg *message.Message, // nolint: revive
) error {
	return nil
}

func (b *BaseTask) HandleError(err error) {
	log.Errorf("Task HandleError error: %s", err)
}

// Initialize registers all background tasks with the task router.
func Initialize(ctx context.Context, appState *models.AppState, router models.TaskRouter) {
	log.Info("Initializing tasks")

	addTask := func(ctx context.Context, name, taskType string, newTask func() models.Task) {
		task := newTask()
		router.AddTask(ctx, name, taskType, task)
		log.Infof("%s task added to task router", name)
	}

	addTask(
		ctx,
		ProductEmbedderTopic,
		ProductEmbedderTopic,
		func() models.Task { return NewProductEmbedderTask(appState) },
	)
}
