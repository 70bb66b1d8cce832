package llms

import (
	"context"

	"github.com/rasphia/rasphia/config"
	"github.com/rasphia/rasphia/pkg/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

const OpenAIAPIKeyNotSetError = "RASPHIA_OPENAI_API_KEY is not set" //nolint:gosec

var _ models.LLMClient = &OpenAILLM{}

func NewOpenAILLM(ctx context.Context, cfg *config.Config) (*OpenAILLM, error) {
	llm := &OpenAILLM{}
	err := llm.Init(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

type OpenAILLM struct {
	llm *openai.Chat
	tkm *tiktoken.Tiktoken
}

func (oc *OpenAILLM) Init(_ context.Context, cfg *config.Config) error {
	// Initialize the Tiktoken client
	encoding := "cl100k_base"
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return err
	}
	oc.tkm = tkm

	options := oc.configureClient(cfg)

	// Create a new client instance with options
	llm, err := NewOpenAIChatClient(options...)
	if err != nil {
		return err
	}
	oc.llm = llm

	return nil
}

func (oc *OpenAILLM) Call(ctx context.Context,
	prompt string,
	options ...llms.CallOption,
) (string, error) {
	// If the LLM is not initialized, return an error
	if oc.llm == nil {
		return "", NewLLMError(InvalidLLMModelError, nil)
	}

	if len(options) == 0 {
		options = append(options, llms.WithTemperature(DefaultTemperature))
	}

	thisCtx, cancel := context.WithTimeout(ctx, OpenAIAPITimeout)
	defer cancel()

	messages := []schema.ChatMessage{schema.SystemChatMessage{Content: prompt}}

	completion, err := oc.llm.Call(thisCtx, messages, options...)
	if err != nil {
		return "", err
	}

	return completion.GetContent(), nil
}

// GetTokenCount returns the number of tokens in the text
func (oc *OpenAILLM) GetTokenCount(text string) (int, error) {
	return len(oc.tkm.Encode(text, nil, nil)), nil
}

func (oc *OpenAILLM) configureClient(cfg *config.Config) []openai.Option {
	apiKey := GetOpenAIAPIKey(cfg, LLMClientType)

	options := GetBaseOpenAIClientOptions(apiKey, cfg.LLM.Model)
	options = ConfigureOpenAIClientOptions(options, cfg, LLMClientType)

	return options
}
