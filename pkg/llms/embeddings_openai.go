package llms

import (
	"context"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/tmc/langchaingo/llms/openai"
)

const EmbeddingsOpenAIAPIKeyNotSetError = "RASPHIA_EMBEDDINGS_OPENAI_API_KEY is not set" //nolint:gosec

var _ models.EmbeddingsClient = &OpenAIEmbeddingsClient{}

func NewOpenAIEmbeddingsClient(ctx context.Context, cfg *config.Config) (*OpenAIEmbeddingsClient, error) {
	client := &OpenAIEmbeddingsClient{}
	err := client.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type OpenAIEmbeddingsClient struct {
	client *openai.Chat
}

func (ec *OpenAIEmbeddingsClient) Init(_ context.Context, cfg *config.Config) error {
	options := ec.configureClient(cfg)

	// Create a new client instance with options. Even though it is only used
	// for embeddings, it uses the same langchain openai chat client builder.
	client, err := NewOpenAIChatClient(options...)
	if err != nil {
		return err
	}

	ec.client = client

	return nil
}

func (ec *OpenAIEmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, NewEmbeddingsClientError("no texts to embed", nil)
	}
	for _, text := range texts {
		if text == "" {
			return nil, NewEmbeddingsClientError("cannot embed empty text", nil)
		}
	}
	return EmbedTextsWithOpenAIClient(ctx, texts, ec.client, EmbeddingsClientType)
}

func getValidOpenAIModel() string {
	for k := range ValidOpenAILLMs {
		return k
	}
	return "gpt-3.5-turbo"
}

func (ec *OpenAIEmbeddingsClient) configureClient(cfg *config.Config) []openai.Option {
	apiKey := GetOpenAIAPIKey(cfg, EmbeddingsClientType)

	// Even though this client is only used for embeddings, we must pass a
	// valid openai llm model to the chat client builder to avoid errors
	validOpenaiLLMModel := getValidOpenAIModel()

	options := GetBaseOpenAIClientOptions(apiKey, validOpenaiLLMModel)
	options = ConfigureOpenAIClientOptions(options, cfg, EmbeddingsClientType)

	return options
}
