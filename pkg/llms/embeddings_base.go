package llms

import (
	"context"
	"fmt"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/models"
)

const InvalidEmbeddingsClientError = "embeddings client is not set or is invalid"

// EmbeddingsClientError wraps provider and transport failures from the
// embeddings client. The curation orchestrator absorbs these into its
// availability fallback; no retries happen at this level.
type EmbeddingsClientError struct {
	message       string
	originalError error
}

func (e *EmbeddingsClientError) Error() string {
	return fmt.Sprintf("embeddings client error: %s (original error: %v)", e.message, e.originalError)
}

func (e *EmbeddingsClientError) Unwrap() error {
	return e.originalError
}

func NewEmbeddingsClientError(message string, originalError error) *EmbeddingsClientError {
	return &EmbeddingsClientError{message: message, originalError: originalError}
}

func NewEmbeddingsClient(ctx context.Context, cfg *config.Config) (models.EmbeddingsClient, error) {
	switch cfg.Embeddings.Service {
	// For now we only support OpenAI embeddings
	case "openai", "":
		return NewOpenAIEmbeddingsClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("invalid embeddings service: %s", cfg.Embeddings.Service)
	}
}
