package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rasphia/rasphia/pkg/models"
)

type TaskPublisher struct {
	publisher message.Publisher
}

var _ models.TaskPublisher = &TaskPublisher{}

// NewTaskPublisher creates a publisher over the shared task Pub/Sub.
func NewTaskPublisher(publisher message.Publisher) *TaskPublisher {
	return &TaskPublisher{
		publisher: publisher,
	}
}

func (t *TaskPublisher) Publish(taskType string, metadata map[string]string, payload any) error {
	p, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}
	log.Debugf("Publishing task message: %s", p)
	m := message.NewMessage(watermill.NewUUID(), p)
	m.Metadata = message.Metadata(metadata)

	err = t.publisher.Publish(taskType, m)
	if err != nil {
		return fmt.Errorf("failed to publish task message: %w", err)
	}

	return nil
}

func (t *TaskPublisher) Close() error {
	err := t.publisher.Close()
	if err != nil {
		return fmt.Errorf("failed to close task publisher: %w", err)
	}

	return nil
}
