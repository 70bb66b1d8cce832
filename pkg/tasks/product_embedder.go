package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rasphia/rasphia/pkg/models"
)

var _ models.Task = &ProductEmbedderTask{}

func NewProductEmbedderTask(
	appState *models.AppState,
) *ProductEmbedderTask {
	return &ProductEmbedderTask{
		BaseTask: BaseTask{
			appState: appState,
		},
	}
}

// ProductEmbedderTask lazily recomputes a product's embedding after catalog
// writes. It never runs on the write path; failures leave the record stale.
type ProductEmbedderTask struct {
	BaseTask
}

func (pt *ProductEmbedderTask) Execute(
	ctx context.Context,
	msg *message.Message,
) error {
	ctx, done := context.WithTimeout(ctx, TaskTimeout*time.Second)
	defer done()

	var task models.ProductEmbeddingTask
	err := json.Unmarshal(msg.Payload, &task)
	if err != nil {
		return err
	}

	log.Debugf("ProductEmbedderTask called for product %s", task.UUID)

	err = pt.Process(ctx, task)
	if err != nil {
		return err
	}

	msg.Ack()

	return nil
}

func (pt *ProductEmbedderTask) Process(
	ctx context.Context,
	task models.ProductEmbeddingTask,
) error {
	product, err := pt.appState.CatalogStore.GetProduct(ctx, task.UUID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ProductEmbedderTask GetProduct not found. Was the record deleted? %v",
				err,
			)
			// Don't error out
			return nil
		}
		return fmt.Errorf("ProductEmbedderTask retrieve product failed: %w", err)
	}

	// Skip products that already carry a current embedding unless forced.
	if product.Embedding != nil && !task.Force {
		log.Debugf("ProductEmbedderTask skipping %s (embedding exists)", product.Name)
		return nil
	}

	text := EmbeddingText(product)
	embeddings, err := pt.appState.EmbeddingsClient.EmbedTexts(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("ProductEmbedderTask embed failed: %w", err)
	}

	err = pt.appState.CatalogStore.UpdateEmbedding(ctx, product.UUID, embeddings[0])
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warnf(
				"ProductEmbedderTask UpdateEmbedding not found. Was the record deleted? %v",
				err,
			)
			// Don't error out
			return nil
		}
		return fmt.Errorf("ProductEmbedderTask save embedding failed: %w", err)
	}

	return nil
}

// EmbeddingText renders the descriptive fields of a product into the text
// that gets embedded. Changing this rendering invalidates stored vectors.
func EmbeddingText(p *models.Product) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString(". ")
	if p.Brand != "" {
		b.WriteString("Brand: " + p.Brand + ". ")
	}
	if p.Category != "" {
		b.WriteString("Category: " + p.Category + ". ")
	}
	b.WriteString("Description: " + p.Description + ".")
	if p.Story != "" {
		b.WriteString(" " + p.Story)
	}
	if len(p.Tags) > 0 {
		b.WriteString(" " + strings.Join(p.Tags, " "))
	}
	return b.String()
}

// PublishProductEmbedding fires an embedding recompute for a product. It is
// called after catalog writes and must never block or fail the write:
// publish errors are logged and swallowed.
func PublishProductEmbedding(appState *models.AppState, task models.ProductEmbeddingTask) {
	if appState.TaskPublisher == nil {
		log.Warn("PublishProductEmbedding called with no task publisher configured")
		return
	}
	err := appState.TaskPublisher.Publish(
		ProductEmbedderTopic,
		map[string]string{"product_uuid": task.UUID.String()},
		task,
	)
	if err != nil {
		log.Errorf("failed to publish product embedding task: %v", err)
	}
}
