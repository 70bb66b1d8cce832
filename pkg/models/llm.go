package models

import (
	"context"

	"github.com/rasphia/rasphia/config"

	"github.com/tmc/langchaingo/llms"
)

// LLMClient runs chat completions against a language model provider.
type LLMClient interface {
	// Call runs the LLM chat completion against the prompt. Streaming is
	// requested by passing llms.WithStreamingFunc.
	Call(
		ctx context.Context,
		prompt string,
		options ...llms.CallOption,
	) (string, error)
	// GetTokenCount returns the number of tokens in the given text
	GetTokenCount(text string) (int, error)
	// Init initializes the LLM
	Init(ctx context.Context, cfg *config.Config) error
}

// EmbeddingsClient converts texts into fixed-length vectors. Embeddings are
// deterministic for a fixed model version only.
type EmbeddingsClient interface {
	// EmbedTexts embeds the given texts
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Init initializes the Client
	Init(ctx context.Context, cfg *config.Config) error
}
